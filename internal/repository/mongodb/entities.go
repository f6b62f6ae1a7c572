package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// ── Ledger ──────────────────────────────────────────────────────────────────

// GetBalance loads the singleton balance row, returning a zero balance when
// the row has never been written.
func (r *Repository) GetBalance(ctx context.Context) (models.Balance, error) {
	var b models.Balance
	err := r.collection(CollBalance).FindOne(ctx, bson.M{"_id": models.BalanceID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Balance{ID: models.BalanceID, Amount: models.NewMoney(0)}, nil
	}
	if err != nil {
		return b, storeErr(CollBalance, "find", err)
	}
	return b, nil
}

// SetBalance writes the singleton balance row.
func (r *Repository) SetBalance(ctx context.Context, b models.Balance) error {
	b.ID = models.BalanceID
	b.UpdatedAt = time.Now().UTC()
	return upsertByID(ctx, r, CollBalance, models.BalanceID, b)
}

// InsertTransaction appends one ledger entry.
func (r *Repository) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	return insertOne(ctx, r, CollTransactions, tx)
}

// GetTransaction loads one ledger entry by id.
func (r *Repository) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return findByID[models.Transaction](ctx, r, CollTransactions, id)
}

// DeleteTransaction removes one ledger entry (reversal path only).
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollTransactions, id)
}

// ListTransactions returns ledger entries per the query options.
func (r *Repository) ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error) {
	return list[models.Transaction](ctx, r, CollTransactions, opts)
}

// ── Orders ──────────────────────────────────────────────────────────────────

func (r *Repository) InsertOrder(ctx context.Context, o models.Order) error {
	return insertOne(ctx, r, CollOrders, o)
}

func (r *Repository) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return findByID[models.Order](ctx, r, CollOrders, id)
}

func (r *Repository) ReplaceOrder(ctx context.Context, o models.Order) error {
	return replaceByID(ctx, r, CollOrders, o.ID, o)
}

func (r *Repository) DeleteOrder(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollOrders, id)
}

func (r *Repository) ListOrders(ctx context.Context, opts models.ListOptions) ([]models.Order, error) {
	return list[models.Order](ctx, r, CollOrders, opts)
}

// ── Stock ───────────────────────────────────────────────────────────────────

func (r *Repository) InsertStockItem(ctx context.Context, s models.StockItem) error {
	return insertOne(ctx, r, CollStock, s)
}

func (r *Repository) GetStockItem(ctx context.Context, id string) (models.StockItem, error) {
	return findByID[models.StockItem](ctx, r, CollStock, id)
}

func (r *Repository) ReplaceStockItem(ctx context.Context, s models.StockItem) error {
	return replaceByID(ctx, r, CollStock, s.ID, s)
}

func (r *Repository) DeleteStockItem(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollStock, id)
}

func (r *Repository) ListStock(ctx context.Context, opts models.ListOptions) ([]models.StockItem, error) {
	return list[models.StockItem](ctx, r, CollStock, opts)
}

// ── Live batches ────────────────────────────────────────────────────────────

func (r *Repository) InsertLiveBatch(ctx context.Context, b models.LiveBatch) error {
	return insertOne(ctx, r, CollLiveBatches, b)
}

func (r *Repository) GetLiveBatch(ctx context.Context, id string) (models.LiveBatch, error) {
	return findByID[models.LiveBatch](ctx, r, CollLiveBatches, id)
}

func (r *Repository) ReplaceLiveBatch(ctx context.Context, b models.LiveBatch) error {
	return replaceByID(ctx, r, CollLiveBatches, b.ID, b)
}

func (r *Repository) DeleteLiveBatch(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollLiveBatches, id)
}

func (r *Repository) ListLiveBatches(ctx context.Context, opts models.ListOptions) ([]models.LiveBatch, error) {
	return list[models.LiveBatch](ctx, r, CollLiveBatches, opts)
}

// ── Dressed batches ─────────────────────────────────────────────────────────

func (r *Repository) InsertDressedBatch(ctx context.Context, b models.DressedBatch) error {
	return insertOne(ctx, r, CollDressedBatches, b)
}

func (r *Repository) GetDressedBatch(ctx context.Context, id string) (models.DressedBatch, error) {
	return findByID[models.DressedBatch](ctx, r, CollDressedBatches, id)
}

func (r *Repository) ReplaceDressedBatch(ctx context.Context, b models.DressedBatch) error {
	return replaceByID(ctx, r, CollDressedBatches, b.ID, b)
}

func (r *Repository) DeleteDressedBatch(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollDressedBatches, id)
}

func (r *Repository) ListDressedBatches(ctx context.Context, opts models.ListOptions) ([]models.DressedBatch, error) {
	return list[models.DressedBatch](ctx, r, CollDressedBatches, opts)
}

// ── Feed ────────────────────────────────────────────────────────────────────

func (r *Repository) InsertFeedItem(ctx context.Context, f models.FeedInventory) error {
	return insertOne(ctx, r, CollFeedInventory, f)
}

func (r *Repository) GetFeedItem(ctx context.Context, id string) (models.FeedInventory, error) {
	return findByID[models.FeedInventory](ctx, r, CollFeedInventory, id)
}

func (r *Repository) ReplaceFeedItem(ctx context.Context, f models.FeedInventory) error {
	return replaceByID(ctx, r, CollFeedInventory, f.ID, f)
}

func (r *Repository) DeleteFeedItem(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollFeedInventory, id)
}

func (r *Repository) ListFeedItems(ctx context.Context, opts models.ListOptions) ([]models.FeedInventory, error) {
	return list[models.FeedInventory](ctx, r, CollFeedInventory, opts)
}

func (r *Repository) InsertFeedConsumption(ctx context.Context, c models.FeedConsumption) error {
	return insertOne(ctx, r, CollFeedConsumption, c)
}

func (r *Repository) GetFeedConsumption(ctx context.Context, id string) (models.FeedConsumption, error) {
	return findByID[models.FeedConsumption](ctx, r, CollFeedConsumption, id)
}

func (r *Repository) DeleteFeedConsumption(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollFeedConsumption, id)
}

func (r *Repository) ListFeedConsumption(ctx context.Context, opts models.ListOptions) ([]models.FeedConsumption, error) {
	return list[models.FeedConsumption](ctx, r, CollFeedConsumption, opts)
}

func (r *Repository) InsertFeedAssignment(ctx context.Context, a models.BatchAssignment) error {
	return insertOne(ctx, r, CollFeedAssignments, a)
}

func (r *Repository) DeleteFeedAssignment(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollFeedAssignments, id)
}

func (r *Repository) ListFeedAssignments(ctx context.Context, opts models.ListOptions) ([]models.BatchAssignment, error) {
	return list[models.BatchAssignment](ctx, r, CollFeedAssignments, opts)
}

// ── Inventory audit trail ───────────────────────────────────────────────────

func (r *Repository) InsertInventoryTransaction(ctx context.Context, tx models.InventoryTransaction) error {
	return insertOne(ctx, r, CollInventoryTransactions, tx)
}

func (r *Repository) ListInventoryTransactions(ctx context.Context, opts models.ListOptions) ([]models.InventoryTransaction, error) {
	return list[models.InventoryTransaction](ctx, r, CollInventoryTransactions, opts)
}

// ── Batch relationships ─────────────────────────────────────────────────────

func (r *Repository) InsertRelationship(ctx context.Context, rel models.BatchRelationship) error {
	return insertOne(ctx, r, CollBatchRelationships, rel)
}

func (r *Repository) GetRelationship(ctx context.Context, id string) (models.BatchRelationship, error) {
	return findByID[models.BatchRelationship](ctx, r, CollBatchRelationships, id)
}

func (r *Repository) ReplaceRelationship(ctx context.Context, rel models.BatchRelationship) error {
	return replaceByID(ctx, r, CollBatchRelationships, rel.ID, rel)
}

// HardDeleteRelationship removes the edge row; soft delete goes through
// ReplaceRelationship with IsActive=false.
func (r *Repository) HardDeleteRelationship(ctx context.Context, id string) error {
	return deleteByID(ctx, r, CollBatchRelationships, id)
}

func (r *Repository) ListRelationships(ctx context.Context, opts models.ListOptions) ([]models.BatchRelationship, error) {
	return list[models.BatchRelationship](ctx, r, CollBatchRelationships, opts)
}

// ── Audit logs ──────────────────────────────────────────────────────────────

func (r *Repository) InsertAuditLog(ctx context.Context, a models.AuditLog) error {
	return insertOne(ctx, r, CollAuditLogs, a)
}
