package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// AddRelationship records a provenance edge between two batches. A missing
// quantity is inferred from the source batch's natural count field, falling
// back to the target's.
func (s *Service) AddRelationship(ctx context.Context, rel models.BatchRelationship) (models.BatchRelationship, error) {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	rel.IsActive = true
	rel.DeletedAt = nil
	rel.CreatedAt = time.Now().UTC()

	if err := rel.Validate(); err != nil {
		return models.BatchRelationship{}, err
	}

	if rel.Quantity == 0 {
		qty, err := s.naturalCount(ctx, rel.SourceBatchType, rel.SourceBatchID)
		if err != nil || qty == 0 {
			qty, err = s.naturalCount(ctx, rel.TargetBatchType, rel.TargetBatchID)
			if err != nil {
				return models.BatchRelationship{}, err
			}
		}
		rel.Quantity = qty
	}

	if err := s.store.InsertRelationship(ctx, rel); err != nil {
		return models.BatchRelationship{}, err
	}
	s.audit.LogAction(ctx, "create", "batch_relationships", rel.ID, nil, rel)
	return rel, nil
}

// naturalCount resolves the quantity a batch "naturally" carries: live count,
// reconciled whole units, or feed kilograms.
func (s *Service) naturalCount(ctx context.Context, batchType models.BatchType, id string) (float64, error) {
	switch batchType {
	case models.BatchTypeLive:
		b, err := s.store.GetLiveBatch(ctx, id)
		if err != nil {
			return 0, err
		}
		return float64(b.CurrentCount), nil
	case models.BatchTypeDressed:
		b, err := s.store.GetDressedBatch(ctx, id)
		if err != nil {
			return 0, err
		}
		return float64(ReconcileWholeUnits(b)), nil
	case models.BatchTypeFeed:
		f, err := s.store.GetFeedItem(ctx, id)
		if err != nil {
			return 0, err
		}
		return f.QuantityKg, nil
	default:
		return 0, models.Validationf("batch_type", "unknown type %q", string(batchType))
	}
}

// UpdateRelationship replaces an edge's mutable fields.
func (s *Service) UpdateRelationship(ctx context.Context, rel models.BatchRelationship) (models.BatchRelationship, error) {
	if err := rel.Validate(); err != nil {
		return models.BatchRelationship{}, err
	}
	old, err := s.store.GetRelationship(ctx, rel.ID)
	if err != nil {
		return models.BatchRelationship{}, err
	}
	rel.CreatedAt = old.CreatedAt
	rel.IsActive = old.IsActive
	rel.DeletedAt = old.DeletedAt
	if err := s.store.ReplaceRelationship(ctx, rel); err != nil {
		return models.BatchRelationship{}, err
	}
	s.audit.LogAction(ctx, "update", "batch_relationships", rel.ID, old, rel)
	return rel, nil
}

// DeleteRelationship soft-deletes the edge: the row stays with IsActive off
// and DeletedAt stamped. Pass hard=true to remove it outright.
func (s *Service) DeleteRelationship(ctx context.Context, id string, hard bool) error {
	old, err := s.store.GetRelationship(ctx, id)
	if err != nil {
		return err
	}

	if hard {
		if err := s.store.HardDeleteRelationship(ctx, id); err != nil {
			return err
		}
		s.audit.LogAction(ctx, "delete", "batch_relationships", id, old, nil)
		return nil
	}

	now := time.Now().UTC()
	rel := old
	rel.IsActive = false
	rel.DeletedAt = &now
	if err := s.store.ReplaceRelationship(ctx, rel); err != nil {
		return err
	}
	s.audit.LogAction(ctx, "update", "batch_relationships", id, old, rel)
	return nil
}

// ListRelationships exposes the edges; activeOnly filters out soft-deleted
// rows.
func (s *Service) ListRelationships(ctx context.Context, opts models.ListOptions, activeOnly bool) ([]models.BatchRelationship, error) {
	if activeOnly {
		if opts.Filter == nil {
			opts.Filter = map[string]any{}
		}
		opts.Filter["is_active"] = true
	}
	return s.store.ListRelationships(ctx, opts)
}
