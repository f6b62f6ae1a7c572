// Package store binds the remote adapter, the local fallback cache and the
// read-through cache into the one storage surface the engines talk to.
//
// Durability is a declared property per collection: Strict collections abort
// the operation on remote failure, BestEffort collections degrade to a queued
// local write plus a warning.
package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/observability"
	"github.com/mamadbah2/farmledger/internal/repository/cache"
	"github.com/mamadbah2/farmledger/internal/repository/fallback"
	"github.com/mamadbah2/farmledger/internal/repository/mongodb"
)

// Tier is the declared durability requirement of a collection.
type Tier int

const (
	// Strict: a failed remote write aborts the whole operation.
	Strict Tier = iota
	// BestEffort: a failed remote write is queued locally and replayed later.
	BestEffort
)

// tiers declares durability per collection. Everything invariant-bearing is
// Strict; only the audit mirror may degrade. Weight samples are the single
// per-operation exception, see AppendWeightSample.
var tiers = map[string]Tier{
	mongodb.CollOrders:                Strict,
	mongodb.CollStock:                 Strict,
	mongodb.CollTransactions:          Strict,
	mongodb.CollBalance:               Strict,
	mongodb.CollLiveBatches:           Strict,
	mongodb.CollDressedBatches:        Strict,
	mongodb.CollFeedInventory:         Strict,
	mongodb.CollFeedConsumption:       Strict,
	mongodb.CollFeedAssignments:       Strict,
	mongodb.CollInventoryTransactions: Strict,
	mongodb.CollBatchRelationships:    Strict,
	mongodb.CollAuditLogs:             BestEffort,
}

// TierOf returns the declared durability tier for a collection.
func TierOf(coll string) Tier {
	if t, ok := tiers[coll]; ok {
		return t
	}
	return Strict
}

// Store is the composite storage surface.
type Store struct {
	remote *mongodb.Repository
	local  *fallback.Store
	cache  *cache.Cache
	logger *zap.Logger
}

// New assembles the composite store.
func New(remote *mongodb.Repository, local *fallback.Store, c *cache.Cache, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{remote: remote, local: local, cache: c, logger: logger}
}

// Local exposes the fallback store for saga markers and replay.
func (s *Store) Local() *fallback.Store { return s.local }

// write runs a remote mutation and applies the collection's durability
// policy. record is what gets queued locally on a BestEffort degrade.
func (s *Store) write(ctx context.Context, coll, op string, record any, remote func(context.Context) error) error {
	err := remote(ctx)
	if err == nil {
		s.cache.Invalidate(coll)
		return nil
	}
	if !errors.Is(err, models.ErrRemoteStore) {
		// NotFound and friends: not a durability problem.
		return err
	}
	if TierOf(coll) == Strict {
		return err
	}

	observability.FallbackWrites.WithLabelValues(coll).Inc()
	if qerr := s.local.QueueWrite(ctx, coll, op, record); qerr != nil {
		return errors.Join(err, qerr)
	}
	s.logger.Warn("remote write degraded to local fallback",
		zap.String("collection", coll),
		zap.String("op", op),
		zap.Error(err))
	s.cache.Invalidate(coll)
	return nil
}

// writeBestEffort forces BestEffort handling regardless of the collection
// tier. Used only for weight-history samples.
func (s *Store) writeBestEffort(ctx context.Context, coll, op string, record any, remote func(context.Context) error) error {
	err := remote(ctx)
	if err == nil {
		s.cache.Invalidate(coll)
		return nil
	}
	if !errors.Is(err, models.ErrRemoteStore) {
		return err
	}
	observability.FallbackWrites.WithLabelValues(coll).Inc()
	if qerr := s.local.QueueWrite(ctx, coll, op, record); qerr != nil {
		return errors.Join(err, qerr)
	}
	s.logger.Warn("best-effort write kept locally only",
		zap.String("collection", coll),
		zap.String("op", op),
		zap.Error(err))
	return nil
}

// readList is the cached list path. Unfiltered first pages refresh the local
// snapshot; on remote failure the last snapshot is served with a warning.
func readList[T any](ctx context.Context, s *Store, coll string, opts models.ListOptions, load func(context.Context) ([]T, error)) ([]T, error) {
	shape := cache.QueryShape(opts)
	return cache.GetOrLoad(ctx, s.cache, coll, shape, func(ctx context.Context) ([]T, error) {
		items, err := load(ctx)
		if err == nil {
			if len(opts.Filter) == 0 && opts.Offset == 0 {
				if serr := s.local.SaveSnapshot(ctx, coll, items); serr != nil {
					s.logger.Debug("snapshot refresh failed", zap.String("collection", coll), zap.Error(serr))
				}
			}
			return items, nil
		}
		if errors.Is(err, models.ErrRemoteStore) {
			var snap []T
			if ts, ok, serr := s.local.LoadSnapshot(ctx, coll, &snap); serr == nil && ok {
				s.logger.Warn("serving stale snapshot, remote store down",
					zap.String("collection", coll),
					zap.Time("snapshot_at", ts),
					zap.Error(err))
				return snap, nil
			}
		}
		return nil, err
	})
}

// readOne is the cached single-record path.
func readOne[T any](ctx context.Context, s *Store, coll, id string, load func(context.Context) (T, error)) (T, error) {
	return cache.GetOrLoad(ctx, s.cache, coll, cache.RecordShape(id), load)
}
