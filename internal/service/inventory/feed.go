package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// AddFeedItem creates a feed lot, booking its purchase cost as a stock
// expense when priced.
func (s *Service) AddFeedItem(ctx context.Context, f models.FeedInventory) (models.FeedInventory, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = models.FeedActive
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if f.PurchaseDate.IsZero() {
		f.PurchaseDate = now
	}
	if err := f.Validate(); err != nil {
		return models.FeedInventory{}, err
	}

	if err := s.store.InsertFeedItem(ctx, f); err != nil {
		return models.FeedInventory{}, err
	}

	if s.ledger != nil && f.CostPerKg.IsPositive() && f.QuantityKg > 0 {
		cost := f.CostPerKg.MulFloat(f.QuantityKg)
		desc := fmt.Sprintf("feed purchase: %s (%.1f kg)", f.FeedType, f.QuantityKg)
		if _, err := s.ledger.RecordStockExpense(ctx, cost, desc); err != nil {
			if delErr := s.store.DeleteFeedItem(ctx, f.ID); delErr != nil {
				s.logger.Error("feed insert not undone after ledger failure",
					zap.String("feed_id", f.ID), zap.Error(delErr))
			}
			return models.FeedInventory{}, err
		}
	}

	s.audit.LogAction(ctx, "create", "feed_inventory", f.ID, nil, f)
	return f, nil
}

// UpdateFeedItem replaces a feed lot.
func (s *Service) UpdateFeedItem(ctx context.Context, f models.FeedInventory) (models.FeedInventory, error) {
	if err := f.Validate(); err != nil {
		return models.FeedInventory{}, err
	}

	s.locks.Lock(f.ID)
	defer s.locks.Unlock(f.ID)

	old, err := s.store.GetFeedItem(ctx, f.ID)
	if err != nil {
		return models.FeedInventory{}, err
	}
	f.CreatedAt = old.CreatedAt
	f.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceFeedItem(ctx, f); err != nil {
		return models.FeedInventory{}, err
	}
	s.audit.LogAction(ctx, "update", "feed_inventory", f.ID, old, f)
	return f, nil
}

// DeleteFeedItem removes a feed lot.
func (s *Service) DeleteFeedItem(ctx context.Context, id string) error {
	old, err := s.store.GetFeedItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFeedItem(ctx, id); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "delete", "feed_inventory", id, old, nil)
	return nil
}

// GetFeedItem loads one feed lot.
func (s *Service) GetFeedItem(ctx context.Context, id string) (models.FeedInventory, error) {
	return s.store.GetFeedItem(ctx, id)
}

// ListFeedItems exposes the paginated read query.
func (s *Service) ListFeedItems(ctx context.Context, opts models.ListOptions) ([]models.FeedInventory, error) {
	return s.store.ListFeedItems(ctx, opts)
}

// AddFeedConsumption records feed usage: the linked item's quantity drops by
// the consumed amount, flooring at zero, and the item flips to consumed when
// it empties.
func (s *Service) AddFeedConsumption(ctx context.Context, c models.FeedConsumption) (models.FeedConsumption, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	c.CreatedAt = time.Now().UTC()
	if err := c.Validate(); err != nil {
		return models.FeedConsumption{}, err
	}

	s.locks.Lock(c.FeedID)
	defer s.locks.Unlock(c.FeedID)

	item, err := s.store.GetFeedItem(ctx, c.FeedID)
	if err != nil {
		return models.FeedConsumption{}, err
	}
	old := item

	item.QuantityKg -= c.QuantityConsumedKg
	if item.QuantityKg <= 0 {
		item.QuantityKg = 0
		item.Status = models.FeedConsumed
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.InsertFeedConsumption(ctx, c); err != nil {
		return models.FeedConsumption{}, err
	}
	if err := s.store.ReplaceFeedItem(ctx, item); err != nil {
		// Back out the consumption record so the pair stays consistent.
		if rbErr := s.store.DeleteFeedConsumption(ctx, c.ID); rbErr != nil {
			s.logger.Error("feed consumption record not undone after item write failure",
				zap.String("consumption_id", c.ID), zap.Error(rbErr))
		}
		return models.FeedConsumption{}, err
	}
	if err := s.appendInvTx(ctx, c.FeedID, models.BatchTypeFeed, "", models.InvTxTransfer,
		-c.QuantityConsumedKg, fmt.Sprintf("fed to batch %s", c.BatchID), ""); err != nil {
		return models.FeedConsumption{}, s.undoFeedWrite(ctx, old, c, true, err)
	}

	s.audit.LogAction(ctx, "create", "feed_consumption", c.ID, nil, c)
	s.audit.LogAction(ctx, "update", "feed_inventory", item.ID, old, item)
	return c, nil
}

// undoFeedWrite rolls a consumption mutation back to its pre-write state
// after the audit row failed to land: the item goes back to prevItem, and
// the consumption record is deleted (added==true) or re-inserted. A failed
// rollback is surfaced as a partial failure.
func (s *Service) undoFeedWrite(ctx context.Context, prevItem models.FeedInventory, c models.FeedConsumption, added bool, auditErr error) error {
	stepErrs := map[string]error{"audit_row": auditErr}
	if rbErr := s.store.ReplaceFeedItem(ctx, prevItem); rbErr != nil {
		stepErrs["rollback_item"] = rbErr
	}
	if added {
		if rbErr := s.store.DeleteFeedConsumption(ctx, c.ID); rbErr != nil {
			stepErrs["rollback_record"] = rbErr
		}
	} else {
		if rbErr := s.store.InsertFeedConsumption(ctx, c); rbErr != nil {
			stepErrs["rollback_record"] = rbErr
		}
	}
	if len(stepErrs) > 1 {
		s.logger.Error("feed consumption half-applied: quantity written, audit row not",
			zap.String("consumption_id", c.ID),
			zap.Error(auditErr))
		return &models.PartialFailureError{
			Operation:  "inventory.feed_consumption",
			Completed:  []string{"record", "quantity"},
			StepErrors: stepErrs,
		}
	}
	return auditErr
}

// DeleteFeedConsumption removes a consumption record and restores the feed
// quantity it had deducted.
func (s *Service) DeleteFeedConsumption(ctx context.Context, id string) error {
	c, err := s.store.GetFeedConsumption(ctx, id)
	if err != nil {
		return err
	}

	s.locks.Lock(c.FeedID)
	defer s.locks.Unlock(c.FeedID)

	item, err := s.store.GetFeedItem(ctx, c.FeedID)
	if err != nil {
		return err
	}
	old := item

	item.QuantityKg += c.QuantityConsumedKg
	if item.QuantityKg > 0 {
		item.Status = models.FeedActive
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.DeleteFeedConsumption(ctx, id); err != nil {
		return err
	}
	if err := s.store.ReplaceFeedItem(ctx, item); err != nil {
		if rbErr := s.store.InsertFeedConsumption(ctx, c); rbErr != nil {
			s.logger.Error("feed consumption record not re-inserted after item write failure",
				zap.String("consumption_id", id), zap.Error(rbErr))
		}
		return err
	}
	if err := s.appendInvTx(ctx, c.FeedID, models.BatchTypeFeed, "", models.InvTxReturn,
		c.QuantityConsumedKg, fmt.Sprintf("consumption %s deleted", id), ""); err != nil {
		return s.undoFeedWrite(ctx, old, c, false, err)
	}

	s.audit.LogAction(ctx, "delete", "feed_consumption", id, c, nil)
	s.audit.LogAction(ctx, "update", "feed_inventory", item.ID, old, item)
	return nil
}

// ListFeedConsumption exposes the paginated read query.
func (s *Service) ListFeedConsumption(ctx context.Context, opts models.ListOptions) ([]models.FeedConsumption, error) {
	return s.store.ListFeedConsumption(ctx, opts)
}

// AddFeedAssignment earmarks part of a feed lot for a live batch.
func (s *Service) AddFeedAssignment(ctx context.Context, a models.BatchAssignment) (models.BatchAssignment, error) {
	if a.FeedID == "" {
		return models.BatchAssignment{}, models.Validationf("feed_id", "is required")
	}
	if a.BatchID == "" {
		return models.BatchAssignment{}, models.Validationf("batch_id", "is required")
	}
	if a.AssignedQuantityKg <= 0 {
		return models.BatchAssignment{}, models.Validationf("assigned_quantity_kg", "must be positive")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	if _, err := s.store.GetFeedItem(ctx, a.FeedID); err != nil {
		return models.BatchAssignment{}, err
	}
	if err := s.store.InsertFeedAssignment(ctx, a); err != nil {
		return models.BatchAssignment{}, err
	}
	s.audit.LogAction(ctx, "create", "feed_batch_assignments", a.ID, nil, a)
	return a, nil
}

// DeleteFeedAssignment removes an assignment.
func (s *Service) DeleteFeedAssignment(ctx context.Context, id string) error {
	if err := s.store.DeleteFeedAssignment(ctx, id); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "delete", "feed_batch_assignments", id, nil, nil)
	return nil
}

// ListFeedAssignments exposes the paginated read query.
func (s *Service) ListFeedAssignments(ctx context.Context, opts models.ListOptions) ([]models.BatchAssignment, error) {
	return s.store.ListFeedAssignments(ctx, opts)
}
