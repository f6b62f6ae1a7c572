// Package inventory owns every quantity mutation on batches and feed stock.
// Deductions are checked against availability before anything is written, and
// each applied change appends exactly one inventory transaction row.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/audit"
	"github.com/mamadbah2/farmledger/pkg/keylock"
)

// Store is the slice of the composite store the inventory engine needs.
type Store interface {
	InsertLiveBatch(ctx context.Context, b models.LiveBatch) error
	GetLiveBatch(ctx context.Context, id string) (models.LiveBatch, error)
	ReplaceLiveBatch(ctx context.Context, b models.LiveBatch) error
	AppendWeightSample(ctx context.Context, b models.LiveBatch) error
	DeleteLiveBatch(ctx context.Context, id string) error
	ListLiveBatches(ctx context.Context, opts models.ListOptions) ([]models.LiveBatch, error)

	InsertDressedBatch(ctx context.Context, b models.DressedBatch) error
	GetDressedBatch(ctx context.Context, id string) (models.DressedBatch, error)
	ReplaceDressedBatch(ctx context.Context, b models.DressedBatch) error
	DeleteDressedBatch(ctx context.Context, id string) error
	ListDressedBatches(ctx context.Context, opts models.ListOptions) ([]models.DressedBatch, error)

	InsertStockItem(ctx context.Context, s models.StockItem) error
	GetStockItem(ctx context.Context, id string) (models.StockItem, error)
	ReplaceStockItem(ctx context.Context, s models.StockItem) error
	DeleteStockItem(ctx context.Context, id string) error
	ListStock(ctx context.Context, opts models.ListOptions) ([]models.StockItem, error)

	InsertFeedItem(ctx context.Context, f models.FeedInventory) error
	GetFeedItem(ctx context.Context, id string) (models.FeedInventory, error)
	ReplaceFeedItem(ctx context.Context, f models.FeedInventory) error
	DeleteFeedItem(ctx context.Context, id string) error
	ListFeedItems(ctx context.Context, opts models.ListOptions) ([]models.FeedInventory, error)

	InsertFeedConsumption(ctx context.Context, c models.FeedConsumption) error
	GetFeedConsumption(ctx context.Context, id string) (models.FeedConsumption, error)
	DeleteFeedConsumption(ctx context.Context, id string) error
	ListFeedConsumption(ctx context.Context, opts models.ListOptions) ([]models.FeedConsumption, error)

	InsertFeedAssignment(ctx context.Context, a models.BatchAssignment) error
	DeleteFeedAssignment(ctx context.Context, id string) error
	ListFeedAssignments(ctx context.Context, opts models.ListOptions) ([]models.BatchAssignment, error)

	InsertInventoryTransaction(ctx context.Context, tx models.InventoryTransaction) error
	ListInventoryTransactions(ctx context.Context, opts models.ListOptions) ([]models.InventoryTransaction, error)

	InsertRelationship(ctx context.Context, rel models.BatchRelationship) error
	GetRelationship(ctx context.Context, id string) (models.BatchRelationship, error)
	ReplaceRelationship(ctx context.Context, rel models.BatchRelationship) error
	HardDeleteRelationship(ctx context.Context, id string) error
	ListRelationships(ctx context.Context, opts models.ListOptions) ([]models.BatchRelationship, error)
}

// LedgerRecorder is the financial side-effect hook into the ledger engine.
type LedgerRecorder interface {
	RecordStockExpense(ctx context.Context, amount models.Money, desc string) (models.Transaction, error)
}

// Service is the inventory engine.
type Service struct {
	store  Store
	ledger LedgerRecorder
	audit  audit.Logger
	locks  *keylock.KeyLock
	logger *zap.Logger
}

// NewService wires the inventory engine. ledger may be nil when financial
// side effects are handled by the caller.
func NewService(store Store, ledger LedgerRecorder, auditLog audit.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		store:  store,
		ledger: ledger,
		audit:  auditLog,
		locks:  keylock.New(),
		logger: logger,
	}
}

// appendInvTx writes the mandatory audit row for one applied quantity change.
func (s *Service) appendInvTx(ctx context.Context, batchID string, invType models.BatchType, partType string, txType models.InventoryTxType, delta float64, reason, orderID string) error {
	row := models.InventoryTransaction{
		ID:              uuid.NewString(),
		BatchID:         batchID,
		InventoryType:   invType,
		PartType:        partType,
		Type:            txType,
		QuantityChanged: delta,
		Reason:          reason,
		OrderID:         orderID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.InsertInventoryTransaction(ctx, row); err != nil {
		return fmt.Errorf("append inventory transaction: %w", err)
	}
	return nil
}

// undoLiveWrite rolls a live batch back to prev after its audit row failed
// to land: a quantity change without its row breaks audit completeness. A
// failed rollback is surfaced as a partial failure so the caller knows the
// quantity moved anyway.
func (s *Service) undoLiveWrite(ctx context.Context, prev models.LiveBatch, op string, auditErr error) error {
	if rbErr := s.store.ReplaceLiveBatch(ctx, prev); rbErr != nil {
		s.logger.Error("quantity half-applied: batch written, audit row not",
			zap.String("batch_id", prev.ID),
			zap.Error(auditErr),
			zap.Error(rbErr))
		return &models.PartialFailureError{
			Operation:  op,
			Completed:  []string{"quantity"},
			StepErrors: map[string]error{"audit_row": auditErr, "rollback": rbErr},
		}
	}
	return auditErr
}

// undoDressedWrite is undoLiveWrite for dressed batches.
func (s *Service) undoDressedWrite(ctx context.Context, prev models.DressedBatch, op string, auditErr error) error {
	if rbErr := s.store.ReplaceDressedBatch(ctx, prev); rbErr != nil {
		s.logger.Error("quantity half-applied: batch written, audit row not",
			zap.String("batch_id", prev.ID),
			zap.Error(auditErr),
			zap.Error(rbErr))
		return &models.PartialFailureError{
			Operation:  op,
			Completed:  []string{"quantity"},
			StepErrors: map[string]error{"audit_row": auditErr, "rollback": rbErr},
		}
	}
	return auditErr
}

// cloneParts copies a parts map so a rollback snapshot is not aliased by
// later mutations.
func cloneParts(parts map[string]int) map[string]int {
	if parts == nil {
		return nil
	}
	out := make(map[string]int, len(parts))
	for k, v := range parts {
		out[k] = v
	}
	return out
}

// ── Live batches ────────────────────────────────────────────────────────────

// AddLiveBatch creates a live batch. An acquisition cost books a stock
// expense against the ledger; a failed booking undoes the batch insert.
func (s *Service) AddLiveBatch(ctx context.Context, b models.LiveBatch) (models.LiveBatch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Stage == "" {
		b.Stage = models.StageChick
	}
	if b.CurrentCount == 0 {
		b.CurrentCount = b.InitialCount
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	if err := b.Validate(); err != nil {
		return models.LiveBatch{}, err
	}

	if err := s.store.InsertLiveBatch(ctx, b); err != nil {
		return models.LiveBatch{}, err
	}

	if s.ledger != nil && b.UnitCost.IsPositive() {
		cost := b.UnitCost.MulInt(b.InitialCount)
		desc := fmt.Sprintf("live batch purchase: %s (%d birds)", b.Name, b.InitialCount)
		if _, err := s.ledger.RecordStockExpense(ctx, cost, desc); err != nil {
			if delErr := s.store.DeleteLiveBatch(ctx, b.ID); delErr != nil {
				s.logger.Error("live batch insert not undone after ledger failure",
					zap.String("batch_id", b.ID), zap.Error(delErr))
			}
			return models.LiveBatch{}, err
		}
	}

	s.audit.LogAction(ctx, "create", "live_chickens", b.ID, nil, b)
	return b, nil
}

// UpdateLiveBatch replaces a live batch, rejecting lifecycle regressions.
func (s *Service) UpdateLiveBatch(ctx context.Context, b models.LiveBatch) (models.LiveBatch, error) {
	if err := b.Validate(); err != nil {
		return models.LiveBatch{}, err
	}

	s.locks.Lock(b.ID)
	defer s.locks.Unlock(b.ID)

	old, err := s.store.GetLiveBatch(ctx, b.ID)
	if err != nil {
		return models.LiveBatch{}, err
	}
	if b.Stage != "" && models.StageRank(b.Stage) < models.StageRank(old.Stage) {
		return models.LiveBatch{}, models.Validationf("lifecycle_stage",
			"cannot move back from %s to %s", old.Stage, b.Stage)
	}

	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceLiveBatch(ctx, b); err != nil {
		return models.LiveBatch{}, err
	}

	s.audit.LogAction(ctx, "update", "live_chickens", b.ID, old, b)
	return b, nil
}

// DeleteLiveBatch removes a live batch.
func (s *Service) DeleteLiveBatch(ctx context.Context, id string) error {
	old, err := s.store.GetLiveBatch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteLiveBatch(ctx, id); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "delete", "live_chickens", id, old, nil)
	return nil
}

// GetLiveBatch loads one live batch.
func (s *Service) GetLiveBatch(ctx context.Context, id string) (models.LiveBatch, error) {
	return s.store.GetLiveBatch(ctx, id)
}

// ListLiveBatches exposes the paginated read query.
func (s *Service) ListLiveBatches(ctx context.Context, opts models.ListOptions) ([]models.LiveBatch, error) {
	return s.store.ListLiveBatches(ctx, opts)
}

// RecordMortality deducts dead birds and bumps the mortality counter.
func (s *Service) RecordMortality(ctx context.Context, batchID string, count int, reason string) (models.LiveBatch, error) {
	if count <= 0 {
		return models.LiveBatch{}, models.Validationf("count", "must be positive")
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetLiveBatch(ctx, batchID)
	if err != nil {
		return models.LiveBatch{}, err
	}
	if count > b.CurrentCount {
		return models.LiveBatch{}, &models.InsufficientInventoryError{
			BatchID:   batchID,
			Available: b.CurrentCount,
			Requested: count,
		}
	}

	old := b
	b.CurrentCount -= count
	b.Mortality += count
	b.UpdatedAt = time.Now().UTC()

	if err := s.store.ReplaceLiveBatch(ctx, b); err != nil {
		return models.LiveBatch{}, err
	}
	if err := s.appendInvTx(ctx, batchID, models.BatchTypeLive, "", models.InvTxMortality, -float64(count), reason, ""); err != nil {
		return models.LiveBatch{}, s.undoLiveWrite(ctx, old, "inventory.record_mortality", err)
	}

	s.audit.LogAction(ctx, "update", "live_chickens", batchID, old, b)
	return b, nil
}

// RecordWeightSample appends a weight measurement, best-effort.
func (s *Service) RecordWeightSample(ctx context.Context, batchID string, sample models.WeightSample) error {
	if sample.AvgWeightKg <= 0 {
		return models.Validationf("avg_weight_kg", "must be positive")
	}
	if sample.Date.IsZero() {
		sample.Date = time.Now().UTC()
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetLiveBatch(ctx, batchID)
	if err != nil {
		return err
	}
	b.WeightSamples = append(b.WeightSamples, sample)
	b.UpdatedAt = time.Now().UTC()
	return s.store.AppendWeightSample(ctx, b)
}

// AvailableLive returns the sellable bird count of a live batch.
func (s *Service) AvailableLive(ctx context.Context, batchID string) (int, error) {
	b, err := s.store.GetLiveBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	return b.CurrentCount, nil
}

// DeductLive takes count birds out of a batch for a sale. No partial
// deduction: the whole count must be available.
func (s *Service) DeductLive(ctx context.Context, batchID string, count int, orderID, reason string) error {
	if count <= 0 {
		return models.Validationf("count", "must be positive")
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetLiveBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if count > b.CurrentCount {
		return &models.InsufficientInventoryError{
			BatchID:   batchID,
			Available: b.CurrentCount,
			Requested: count,
		}
	}

	prev := b
	b.CurrentCount -= count
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceLiveBatch(ctx, b); err != nil {
		return err
	}
	if err := s.appendInvTx(ctx, batchID, models.BatchTypeLive, "", models.InvTxSale, -float64(count), reason, orderID); err != nil {
		return s.undoLiveWrite(ctx, prev, "inventory.deduct_live", err)
	}
	return nil
}

// RestoreLive puts count birds back after an order delete. The count is
// capped at the batch's initial count.
func (s *Service) RestoreLive(ctx context.Context, batchID string, count int, orderID, reason string) error {
	if count <= 0 {
		return models.Validationf("count", "must be positive")
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetLiveBatch(ctx, batchID)
	if err != nil {
		return err
	}
	prev := b
	b.CurrentCount += count
	if b.CurrentCount > b.InitialCount {
		s.logger.Warn("restore capped at initial count",
			zap.String("batch_id", batchID),
			zap.Int("initial", b.InitialCount))
		b.CurrentCount = b.InitialCount
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceLiveBatch(ctx, b); err != nil {
		return err
	}
	if err := s.appendInvTx(ctx, batchID, models.BatchTypeLive, "", models.InvTxReturn, float64(count), reason, orderID); err != nil {
		return s.undoLiveWrite(ctx, prev, "inventory.restore_live", err)
	}
	return nil
}

// ── Dressed batches ─────────────────────────────────────────────────────────

// AddDressedBatch creates a dressed batch.
func (s *Service) AddDressedBatch(ctx context.Context, b models.DressedBatch) (models.DressedBatch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.ProcessingDate.IsZero() {
		b.ProcessingDate = now
	}
	if err := b.Validate(); err != nil {
		return models.DressedBatch{}, err
	}
	if err := s.store.InsertDressedBatch(ctx, b); err != nil {
		return models.DressedBatch{}, err
	}
	s.audit.LogAction(ctx, "create", "dressed_chickens", b.ID, nil, b)
	return b, nil
}

// UpdateDressedBatch replaces a dressed batch.
func (s *Service) UpdateDressedBatch(ctx context.Context, b models.DressedBatch) (models.DressedBatch, error) {
	if err := b.Validate(); err != nil {
		return models.DressedBatch{}, err
	}

	s.locks.Lock(b.ID)
	defer s.locks.Unlock(b.ID)

	old, err := s.store.GetDressedBatch(ctx, b.ID)
	if err != nil {
		return models.DressedBatch{}, err
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceDressedBatch(ctx, b); err != nil {
		return models.DressedBatch{}, err
	}
	s.audit.LogAction(ctx, "update", "dressed_chickens", b.ID, old, b)
	return b, nil
}

// DeleteDressedBatch removes a dressed batch.
func (s *Service) DeleteDressedBatch(ctx context.Context, id string) error {
	old, err := s.store.GetDressedBatch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDressedBatch(ctx, id); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "delete", "dressed_chickens", id, old, nil)
	return nil
}

// GetDressedBatch loads one dressed batch.
func (s *Service) GetDressedBatch(ctx context.Context, id string) (models.DressedBatch, error) {
	return s.store.GetDressedBatch(ctx, id)
}

// ListDressedBatches exposes the paginated read query.
func (s *Service) ListDressedBatches(ctx context.Context, opts models.ListOptions) ([]models.DressedBatch, error) {
	return s.store.ListDressedBatches(ctx, opts)
}

// AvailableDressed returns the sellable quantity of a dressed batch: the
// named part's count, or the reconciled whole-unit count.
func (s *Service) AvailableDressed(ctx context.Context, batchID, partType string) (int, error) {
	b, err := s.store.GetDressedBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	if partType != "" {
		return b.PartsCount[partType], nil
	}
	return ReconcileWholeUnits(b), nil
}

// DeductDressed takes whole units (partType empty) or parts out of a dressed
// batch. Whole-unit availability goes through ReconcileWholeUnits.
func (s *Service) DeductDressed(ctx context.Context, batchID, partType string, count int, orderID, reason string) error {
	if count <= 0 {
		return models.Validationf("count", "must be positive")
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetDressedBatch(ctx, batchID)
	if err != nil {
		return err
	}
	prev := b
	b.PartsCount = cloneParts(b.PartsCount)

	if partType != "" {
		avail := b.PartsCount[partType]
		if count > avail {
			return &models.InsufficientInventoryError{
				BatchID:   batchID,
				PartType:  partType,
				Available: avail,
				Requested: count,
			}
		}
		b.PartsCount[partType] = avail - count
	} else {
		avail := ReconcileWholeUnits(b)
		if count > avail {
			return &models.InsufficientInventoryError{
				BatchID:   batchID,
				Available: avail,
				Requested: count,
			}
		}
		switch {
		case b.ActualUnitCount != nil:
			n := *b.ActualUnitCount - count
			b.ActualUnitCount = &n
			b.CurrentCount -= count
		case len(b.PartsCount) > 0 && b.CurrentCount == b.PartsTotal():
			// Legacy parts-only record: a sold whole unit consumes one of
			// each remaining part, so the reconciled availability keeps
			// tracking the limiting part instead of the stale current_count.
			for part, n := range b.PartsCount {
				if n > 0 {
					b.PartsCount[part] = n - count
				}
			}
			b.CurrentCount = b.PartsTotal()
		default:
			b.CurrentCount -= count
		}
	}

	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceDressedBatch(ctx, b); err != nil {
		return err
	}
	if err := s.appendInvTx(ctx, batchID, models.BatchTypeDressed, partType, models.InvTxSale, -float64(count), reason, orderID); err != nil {
		return s.undoDressedWrite(ctx, prev, "inventory.deduct_dressed", err)
	}
	return nil
}

// RestoreDressed puts whole units or parts back after an order delete.
func (s *Service) RestoreDressed(ctx context.Context, batchID, partType string, count int, orderID, reason string) error {
	if count <= 0 {
		return models.Validationf("count", "must be positive")
	}

	s.locks.Lock(batchID)
	defer s.locks.Unlock(batchID)

	b, err := s.store.GetDressedBatch(ctx, batchID)
	if err != nil {
		return err
	}

	prev := b
	b.PartsCount = cloneParts(b.PartsCount)

	if partType != "" {
		if b.PartsCount == nil {
			b.PartsCount = map[string]int{}
		}
		b.PartsCount[partType] += count
	} else {
		b.CurrentCount += count
		if b.ActualUnitCount != nil {
			n := *b.ActualUnitCount + count
			b.ActualUnitCount = &n
		}
	}

	b.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceDressedBatch(ctx, b); err != nil {
		return err
	}
	if err := s.appendInvTx(ctx, batchID, models.BatchTypeDressed, partType, models.InvTxReturn, float64(count), reason, orderID); err != nil {
		return s.undoDressedWrite(ctx, prev, "inventory.restore_dressed", err)
	}
	return nil
}

// ── Stock items ─────────────────────────────────────────────────────────────

// AddStockItem creates a general stock item, booking a stock expense when the
// purchase carried a cost.
func (s *Service) AddStockItem(ctx context.Context, it models.StockItem) (models.StockItem, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	if err := it.Validate(); err != nil {
		return models.StockItem{}, err
	}
	if err := s.store.InsertStockItem(ctx, it); err != nil {
		return models.StockItem{}, err
	}

	if s.ledger != nil && it.UnitPrice.IsPositive() && it.Quantity > 0 {
		cost := it.UnitPrice.MulFloat(it.Quantity)
		desc := fmt.Sprintf("stock purchase: %s", it.Name)
		if _, err := s.ledger.RecordStockExpense(ctx, cost, desc); err != nil {
			if delErr := s.store.DeleteStockItem(ctx, it.ID); delErr != nil {
				s.logger.Error("stock insert not undone after ledger failure",
					zap.String("stock_id", it.ID), zap.Error(delErr))
			}
			return models.StockItem{}, err
		}
	}

	s.audit.LogAction(ctx, "create", "stock", it.ID, nil, it)
	return it, nil
}

// UpdateStockItem replaces a stock item.
func (s *Service) UpdateStockItem(ctx context.Context, it models.StockItem) (models.StockItem, error) {
	if err := it.Validate(); err != nil {
		return models.StockItem{}, err
	}
	old, err := s.store.GetStockItem(ctx, it.ID)
	if err != nil {
		return models.StockItem{}, err
	}
	it.CreatedAt = old.CreatedAt
	it.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceStockItem(ctx, it); err != nil {
		return models.StockItem{}, err
	}
	s.audit.LogAction(ctx, "update", "stock", it.ID, old, it)
	return it, nil
}

// DeleteStockItem removes a stock item.
func (s *Service) DeleteStockItem(ctx context.Context, id string) error {
	old, err := s.store.GetStockItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteStockItem(ctx, id); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "delete", "stock", id, old, nil)
	return nil
}

// GetStockItem loads one stock item.
func (s *Service) GetStockItem(ctx context.Context, id string) (models.StockItem, error) {
	return s.store.GetStockItem(ctx, id)
}

// ListStock exposes the paginated read query.
func (s *Service) ListStock(ctx context.Context, opts models.ListOptions) ([]models.StockItem, error) {
	return s.store.ListStock(ctx, opts)
}

// ListInventoryTransactions exposes the audit trail for the history views.
func (s *Service) ListInventoryTransactions(ctx context.Context, opts models.ListOptions) ([]models.InventoryTransaction, error) {
	return s.store.ListInventoryTransactions(ctx, opts)
}
