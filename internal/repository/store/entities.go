package store

import (
	"context"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/repository/mongodb"
)

// ── Ledger ──────────────────────────────────────────────────────────────────

// GetBalance always hits the remote store: the engines must never base a
// mutation on a cached balance.
func (s *Store) GetBalance(ctx context.Context) (models.Balance, error) {
	return s.remote.GetBalance(ctx)
}

func (s *Store) SetBalance(ctx context.Context, b models.Balance) error {
	return s.write(ctx, mongodb.CollBalance, "set", b, func(ctx context.Context) error {
		return s.remote.SetBalance(ctx, b)
	})
}

func (s *Store) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	return s.write(ctx, mongodb.CollTransactions, "insert", tx, func(ctx context.Context) error {
		return s.remote.InsertTransaction(ctx, tx)
	})
}

func (s *Store) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return readOne(ctx, s, mongodb.CollTransactions, id, func(ctx context.Context) (models.Transaction, error) {
		return s.remote.GetTransaction(ctx, id)
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollTransactions, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteTransaction(ctx, id)
	})
}

func (s *Store) ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error) {
	return readList(ctx, s, mongodb.CollTransactions, opts, func(ctx context.Context) ([]models.Transaction, error) {
		return s.remote.ListTransactions(ctx, opts)
	})
}

// ── Orders ──────────────────────────────────────────────────────────────────

func (s *Store) InsertOrder(ctx context.Context, o models.Order) error {
	return s.write(ctx, mongodb.CollOrders, "insert", o, func(ctx context.Context) error {
		return s.remote.InsertOrder(ctx, o)
	})
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return readOne(ctx, s, mongodb.CollOrders, id, func(ctx context.Context) (models.Order, error) {
		return s.remote.GetOrder(ctx, id)
	})
}

func (s *Store) ReplaceOrder(ctx context.Context, o models.Order) error {
	return s.write(ctx, mongodb.CollOrders, "replace", o, func(ctx context.Context) error {
		return s.remote.ReplaceOrder(ctx, o)
	})
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollOrders, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteOrder(ctx, id)
	})
}

func (s *Store) ListOrders(ctx context.Context, opts models.ListOptions) ([]models.Order, error) {
	return readList(ctx, s, mongodb.CollOrders, opts, func(ctx context.Context) ([]models.Order, error) {
		return s.remote.ListOrders(ctx, opts)
	})
}

// ── Stock ───────────────────────────────────────────────────────────────────

func (s *Store) InsertStockItem(ctx context.Context, it models.StockItem) error {
	return s.write(ctx, mongodb.CollStock, "insert", it, func(ctx context.Context) error {
		return s.remote.InsertStockItem(ctx, it)
	})
}

func (s *Store) GetStockItem(ctx context.Context, id string) (models.StockItem, error) {
	return readOne(ctx, s, mongodb.CollStock, id, func(ctx context.Context) (models.StockItem, error) {
		return s.remote.GetStockItem(ctx, id)
	})
}

func (s *Store) ReplaceStockItem(ctx context.Context, it models.StockItem) error {
	return s.write(ctx, mongodb.CollStock, "replace", it, func(ctx context.Context) error {
		return s.remote.ReplaceStockItem(ctx, it)
	})
}

func (s *Store) DeleteStockItem(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollStock, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteStockItem(ctx, id)
	})
}

func (s *Store) ListStock(ctx context.Context, opts models.ListOptions) ([]models.StockItem, error) {
	return readList(ctx, s, mongodb.CollStock, opts, func(ctx context.Context) ([]models.StockItem, error) {
		return s.remote.ListStock(ctx, opts)
	})
}

// ── Live batches ────────────────────────────────────────────────────────────

func (s *Store) InsertLiveBatch(ctx context.Context, b models.LiveBatch) error {
	return s.write(ctx, mongodb.CollLiveBatches, "insert", b, func(ctx context.Context) error {
		return s.remote.InsertLiveBatch(ctx, b)
	})
}

func (s *Store) GetLiveBatch(ctx context.Context, id string) (models.LiveBatch, error) {
	return readOne(ctx, s, mongodb.CollLiveBatches, id, func(ctx context.Context) (models.LiveBatch, error) {
		return s.remote.GetLiveBatch(ctx, id)
	})
}

func (s *Store) ReplaceLiveBatch(ctx context.Context, b models.LiveBatch) error {
	return s.write(ctx, mongodb.CollLiveBatches, "replace", b, func(ctx context.Context) error {
		return s.remote.ReplaceLiveBatch(ctx, b)
	})
}

// AppendWeightSample persists a weight-history update best-effort: the sample
// is useful telemetry, not invariant-bearing state.
func (s *Store) AppendWeightSample(ctx context.Context, b models.LiveBatch) error {
	return s.writeBestEffort(ctx, mongodb.CollLiveBatches, "weight_sample", b, func(ctx context.Context) error {
		return s.remote.ReplaceLiveBatch(ctx, b)
	})
}

func (s *Store) DeleteLiveBatch(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollLiveBatches, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteLiveBatch(ctx, id)
	})
}

func (s *Store) ListLiveBatches(ctx context.Context, opts models.ListOptions) ([]models.LiveBatch, error) {
	return readList(ctx, s, mongodb.CollLiveBatches, opts, func(ctx context.Context) ([]models.LiveBatch, error) {
		return s.remote.ListLiveBatches(ctx, opts)
	})
}

// ── Dressed batches ─────────────────────────────────────────────────────────

func (s *Store) InsertDressedBatch(ctx context.Context, b models.DressedBatch) error {
	return s.write(ctx, mongodb.CollDressedBatches, "insert", b, func(ctx context.Context) error {
		return s.remote.InsertDressedBatch(ctx, b)
	})
}

func (s *Store) GetDressedBatch(ctx context.Context, id string) (models.DressedBatch, error) {
	return readOne(ctx, s, mongodb.CollDressedBatches, id, func(ctx context.Context) (models.DressedBatch, error) {
		return s.remote.GetDressedBatch(ctx, id)
	})
}

func (s *Store) ReplaceDressedBatch(ctx context.Context, b models.DressedBatch) error {
	return s.write(ctx, mongodb.CollDressedBatches, "replace", b, func(ctx context.Context) error {
		return s.remote.ReplaceDressedBatch(ctx, b)
	})
}

func (s *Store) DeleteDressedBatch(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollDressedBatches, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteDressedBatch(ctx, id)
	})
}

func (s *Store) ListDressedBatches(ctx context.Context, opts models.ListOptions) ([]models.DressedBatch, error) {
	return readList(ctx, s, mongodb.CollDressedBatches, opts, func(ctx context.Context) ([]models.DressedBatch, error) {
		return s.remote.ListDressedBatches(ctx, opts)
	})
}

// ── Feed ────────────────────────────────────────────────────────────────────

func (s *Store) InsertFeedItem(ctx context.Context, f models.FeedInventory) error {
	return s.write(ctx, mongodb.CollFeedInventory, "insert", f, func(ctx context.Context) error {
		return s.remote.InsertFeedItem(ctx, f)
	})
}

func (s *Store) GetFeedItem(ctx context.Context, id string) (models.FeedInventory, error) {
	return readOne(ctx, s, mongodb.CollFeedInventory, id, func(ctx context.Context) (models.FeedInventory, error) {
		return s.remote.GetFeedItem(ctx, id)
	})
}

func (s *Store) ReplaceFeedItem(ctx context.Context, f models.FeedInventory) error {
	return s.write(ctx, mongodb.CollFeedInventory, "replace", f, func(ctx context.Context) error {
		return s.remote.ReplaceFeedItem(ctx, f)
	})
}

func (s *Store) DeleteFeedItem(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollFeedInventory, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteFeedItem(ctx, id)
	})
}

func (s *Store) ListFeedItems(ctx context.Context, opts models.ListOptions) ([]models.FeedInventory, error) {
	return readList(ctx, s, mongodb.CollFeedInventory, opts, func(ctx context.Context) ([]models.FeedInventory, error) {
		return s.remote.ListFeedItems(ctx, opts)
	})
}

func (s *Store) InsertFeedConsumption(ctx context.Context, c models.FeedConsumption) error {
	return s.write(ctx, mongodb.CollFeedConsumption, "insert", c, func(ctx context.Context) error {
		return s.remote.InsertFeedConsumption(ctx, c)
	})
}

func (s *Store) GetFeedConsumption(ctx context.Context, id string) (models.FeedConsumption, error) {
	return readOne(ctx, s, mongodb.CollFeedConsumption, id, func(ctx context.Context) (models.FeedConsumption, error) {
		return s.remote.GetFeedConsumption(ctx, id)
	})
}

func (s *Store) DeleteFeedConsumption(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollFeedConsumption, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteFeedConsumption(ctx, id)
	})
}

func (s *Store) ListFeedConsumption(ctx context.Context, opts models.ListOptions) ([]models.FeedConsumption, error) {
	return readList(ctx, s, mongodb.CollFeedConsumption, opts, func(ctx context.Context) ([]models.FeedConsumption, error) {
		return s.remote.ListFeedConsumption(ctx, opts)
	})
}

func (s *Store) InsertFeedAssignment(ctx context.Context, a models.BatchAssignment) error {
	return s.write(ctx, mongodb.CollFeedAssignments, "insert", a, func(ctx context.Context) error {
		return s.remote.InsertFeedAssignment(ctx, a)
	})
}

func (s *Store) DeleteFeedAssignment(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollFeedAssignments, "delete", id, func(ctx context.Context) error {
		return s.remote.DeleteFeedAssignment(ctx, id)
	})
}

func (s *Store) ListFeedAssignments(ctx context.Context, opts models.ListOptions) ([]models.BatchAssignment, error) {
	return readList(ctx, s, mongodb.CollFeedAssignments, opts, func(ctx context.Context) ([]models.BatchAssignment, error) {
		return s.remote.ListFeedAssignments(ctx, opts)
	})
}

// ── Inventory audit trail ───────────────────────────────────────────────────

func (s *Store) InsertInventoryTransaction(ctx context.Context, tx models.InventoryTransaction) error {
	return s.write(ctx, mongodb.CollInventoryTransactions, "insert", tx, func(ctx context.Context) error {
		return s.remote.InsertInventoryTransaction(ctx, tx)
	})
}

func (s *Store) ListInventoryTransactions(ctx context.Context, opts models.ListOptions) ([]models.InventoryTransaction, error) {
	return readList(ctx, s, mongodb.CollInventoryTransactions, opts, func(ctx context.Context) ([]models.InventoryTransaction, error) {
		return s.remote.ListInventoryTransactions(ctx, opts)
	})
}

// ── Batch relationships ─────────────────────────────────────────────────────

func (s *Store) InsertRelationship(ctx context.Context, rel models.BatchRelationship) error {
	return s.write(ctx, mongodb.CollBatchRelationships, "insert", rel, func(ctx context.Context) error {
		return s.remote.InsertRelationship(ctx, rel)
	})
}

func (s *Store) GetRelationship(ctx context.Context, id string) (models.BatchRelationship, error) {
	return readOne(ctx, s, mongodb.CollBatchRelationships, id, func(ctx context.Context) (models.BatchRelationship, error) {
		return s.remote.GetRelationship(ctx, id)
	})
}

func (s *Store) ReplaceRelationship(ctx context.Context, rel models.BatchRelationship) error {
	return s.write(ctx, mongodb.CollBatchRelationships, "replace", rel, func(ctx context.Context) error {
		return s.remote.ReplaceRelationship(ctx, rel)
	})
}

func (s *Store) HardDeleteRelationship(ctx context.Context, id string) error {
	return s.write(ctx, mongodb.CollBatchRelationships, "delete", id, func(ctx context.Context) error {
		return s.remote.HardDeleteRelationship(ctx, id)
	})
}

func (s *Store) ListRelationships(ctx context.Context, opts models.ListOptions) ([]models.BatchRelationship, error) {
	return readList(ctx, s, mongodb.CollBatchRelationships, opts, func(ctx context.Context) ([]models.BatchRelationship, error) {
		return s.remote.ListRelationships(ctx, opts)
	})
}

// ── Audit logs ──────────────────────────────────────────────────────────────

func (s *Store) InsertAuditLog(ctx context.Context, a models.AuditLog) error {
	return s.write(ctx, mongodb.CollAuditLogs, "insert", a, func(ctx context.Context) error {
		return s.remote.InsertAuditLog(ctx, a)
	})
}
