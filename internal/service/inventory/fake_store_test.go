package inventory

import (
	"context"
	"sync"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// memStore is an in-memory Store implementation shared by the engine tests.
type memStore struct {
	mu            sync.Mutex
	live          map[string]models.LiveBatch
	dressed       map[string]models.DressedBatch
	stock         map[string]models.StockItem
	feed          map[string]models.FeedInventory
	consumption   map[string]models.FeedConsumption
	assignments   map[string]models.BatchAssignment
	invTxs        []models.InventoryTransaction
	relationships map[string]models.BatchRelationship

	weightSampleWrites int
	failInvTx          int // -1 = always fail InsertInventoryTransaction
}

func newMemStore() *memStore {
	return &memStore{
		live:          map[string]models.LiveBatch{},
		dressed:       map[string]models.DressedBatch{},
		stock:         map[string]models.StockItem{},
		feed:          map[string]models.FeedInventory{},
		consumption:   map[string]models.FeedConsumption{},
		assignments:   map[string]models.BatchAssignment{},
		relationships: map[string]models.BatchRelationship{},
	}
}

func notFound(coll, id string) error {
	return &models.NotFoundError{Collection: coll, ID: id}
}

func (m *memStore) InsertLiveBatch(_ context.Context, b models.LiveBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[b.ID] = b
	return nil
}

func (m *memStore) GetLiveBatch(_ context.Context, id string) (models.LiveBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.live[id]
	if !ok {
		return models.LiveBatch{}, notFound("live_chickens", id)
	}
	return b, nil
}

func (m *memStore) ReplaceLiveBatch(_ context.Context, b models.LiveBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[b.ID]; !ok {
		return notFound("live_chickens", b.ID)
	}
	m.live[b.ID] = b
	return nil
}

func (m *memStore) AppendWeightSample(_ context.Context, b models.LiveBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weightSampleWrites++
	m.live[b.ID] = b
	return nil
}

func (m *memStore) DeleteLiveBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, id)
	return nil
}

func (m *memStore) ListLiveBatches(_ context.Context, _ models.ListOptions) ([]models.LiveBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LiveBatch, 0, len(m.live))
	for _, b := range m.live {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) InsertDressedBatch(_ context.Context, b models.DressedBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dressed[b.ID] = b
	return nil
}

func (m *memStore) GetDressedBatch(_ context.Context, id string) (models.DressedBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.dressed[id]
	if !ok {
		return models.DressedBatch{}, notFound("dressed_chickens", id)
	}
	return b, nil
}

func (m *memStore) ReplaceDressedBatch(_ context.Context, b models.DressedBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dressed[b.ID]; !ok {
		return notFound("dressed_chickens", b.ID)
	}
	m.dressed[b.ID] = b
	return nil
}

func (m *memStore) DeleteDressedBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dressed, id)
	return nil
}

func (m *memStore) ListDressedBatches(_ context.Context, _ models.ListOptions) ([]models.DressedBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DressedBatch, 0, len(m.dressed))
	for _, b := range m.dressed {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) InsertStockItem(_ context.Context, s models.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[s.ID] = s
	return nil
}

func (m *memStore) GetStockItem(_ context.Context, id string) (models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stock[id]
	if !ok {
		return models.StockItem{}, notFound("stock", id)
	}
	return s, nil
}

func (m *memStore) ReplaceStockItem(_ context.Context, s models.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stock[s.ID]; !ok {
		return notFound("stock", s.ID)
	}
	m.stock[s.ID] = s
	return nil
}

func (m *memStore) DeleteStockItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stock, id)
	return nil
}

func (m *memStore) ListStock(_ context.Context, _ models.ListOptions) ([]models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StockItem, 0, len(m.stock))
	for _, s := range m.stock {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) InsertFeedItem(_ context.Context, f models.FeedInventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feed[f.ID] = f
	return nil
}

func (m *memStore) GetFeedItem(_ context.Context, id string) (models.FeedInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feed[id]
	if !ok {
		return models.FeedInventory{}, notFound("feed_inventory", id)
	}
	return f, nil
}

func (m *memStore) ReplaceFeedItem(_ context.Context, f models.FeedInventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feed[f.ID]; !ok {
		return notFound("feed_inventory", f.ID)
	}
	m.feed[f.ID] = f
	return nil
}

func (m *memStore) DeleteFeedItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.feed, id)
	return nil
}

func (m *memStore) ListFeedItems(_ context.Context, _ models.ListOptions) ([]models.FeedInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.FeedInventory, 0, len(m.feed))
	for _, f := range m.feed {
		out = append(out, f)
	}
	return out, nil
}

func (m *memStore) InsertFeedConsumption(_ context.Context, c models.FeedConsumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumption[c.ID] = c
	return nil
}

func (m *memStore) GetFeedConsumption(_ context.Context, id string) (models.FeedConsumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consumption[id]
	if !ok {
		return models.FeedConsumption{}, notFound("feed_consumption", id)
	}
	return c, nil
}

func (m *memStore) DeleteFeedConsumption(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.consumption, id)
	return nil
}

func (m *memStore) ListFeedConsumption(_ context.Context, _ models.ListOptions) ([]models.FeedConsumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.FeedConsumption, 0, len(m.consumption))
	for _, c := range m.consumption {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) InsertFeedAssignment(_ context.Context, a models.BatchAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *memStore) DeleteFeedAssignment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, id)
	return nil
}

func (m *memStore) ListFeedAssignments(_ context.Context, _ models.ListOptions) ([]models.BatchAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.BatchAssignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) InsertInventoryTransaction(_ context.Context, tx models.InventoryTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInvTx != 0 {
		m.failInvTx--
		return &models.RemoteStoreError{Collection: "chicken_inventory_transactions", Op: "insert"}
	}
	m.invTxs = append(m.invTxs, tx)
	return nil
}

func (m *memStore) ListInventoryTransactions(_ context.Context, _ models.ListOptions) ([]models.InventoryTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.InventoryTransaction(nil), m.invTxs...), nil
}

func (m *memStore) InsertRelationship(_ context.Context, rel models.BatchRelationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relationships[rel.ID] = rel
	return nil
}

func (m *memStore) GetRelationship(_ context.Context, id string) (models.BatchRelationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.relationships[id]
	if !ok {
		return models.BatchRelationship{}, notFound("batch_relationships", id)
	}
	return rel, nil
}

func (m *memStore) ReplaceRelationship(_ context.Context, rel models.BatchRelationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.relationships[rel.ID]; !ok {
		return notFound("batch_relationships", rel.ID)
	}
	m.relationships[rel.ID] = rel
	return nil
}

func (m *memStore) HardDeleteRelationship(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.relationships, id)
	return nil
}

func (m *memStore) ListRelationships(_ context.Context, opts models.ListOptions) ([]models.BatchRelationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activeOnly := false
	if v, ok := opts.Filter["is_active"]; ok {
		activeOnly, _ = v.(bool)
	}
	out := make([]models.BatchRelationship, 0, len(m.relationships))
	for _, rel := range m.relationships {
		if activeOnly && !rel.IsActive {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

// fakeLedger records stock expenses and can be told to fail.
type fakeLedger struct {
	expenses []models.Money
	fail     bool
}

func (f *fakeLedger) RecordStockExpense(_ context.Context, amount models.Money, _ string) (models.Transaction, error) {
	if f.fail {
		return models.Transaction{}, &models.RemoteStoreError{Collection: "transactions", Op: "insert"}
	}
	f.expenses = append(f.expenses, amount)
	return models.Transaction{ID: "tx", Type: models.TransactionStockExpense, Amount: amount}, nil
}
