package store

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/repository/mongodb"
)

// ReplayPending pushes queued best-effort writes back to the remote store in
// arrival order. It stops at the first transient failure (the remote is still
// down, later writes would fail too) and returns how many writes landed.
func (s *Store) ReplayPending(ctx context.Context) (int, error) {
	pending, err := s.local.PendingWrites(ctx)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, w := range pending {
		err := s.replayOne(ctx, w.Collection, w.Op, w.Payload)
		if errors.Is(err, models.ErrRemoteStore) {
			return replayed, err
		}
		if err != nil {
			// Malformed or obsolete entry: dropping it is the only way the
			// queue drains, but the payload is preserved in the log line.
			s.logger.Error("pending write not replayable, dropping",
				zap.Int64("id", w.ID),
				zap.String("collection", w.Collection),
				zap.String("op", w.Op),
				zap.ByteString("payload", w.Payload),
				zap.Error(err))
		}
		if derr := s.local.DeletePending(ctx, w.ID); derr != nil {
			return replayed, derr
		}
		if err == nil {
			replayed++
			s.cache.Invalidate(w.Collection)
		}
	}
	return replayed, nil
}

func (s *Store) replayOne(ctx context.Context, coll, op string, payload []byte) error {
	switch {
	case coll == mongodb.CollAuditLogs && op == "insert":
		var a models.AuditLog
		if err := json.Unmarshal(payload, &a); err != nil {
			return fmt.Errorf("decode queued audit log: %w", err)
		}
		return s.remote.InsertAuditLog(ctx, a)
	case coll == mongodb.CollLiveBatches && op == "weight_sample":
		var b models.LiveBatch
		if err := json.Unmarshal(payload, &b); err != nil {
			return fmt.Errorf("decode queued weight sample: %w", err)
		}
		return s.remote.ReplaceLiveBatch(ctx, b)
	default:
		return fmt.Errorf("no replay handler for %s/%s", coll, op)
	}
}
