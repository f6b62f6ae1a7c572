package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

func intPtr(n int) *int { return &n }

func TestAddLiveBatchDefaultsAndExpense(t *testing.T) {
	store := newMemStore()
	ledger := &fakeLedger{}
	svc := NewService(store, ledger, nil, nil)

	b, err := svc.AddLiveBatch(context.Background(), models.LiveBatch{
		Name:         "broilers march",
		InitialCount: 50,
		UnitCost:     models.NewMoney(20),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StageChick, b.Stage)
	assert.Equal(t, 50, b.CurrentCount)

	require.Len(t, ledger.expenses, 1)
	assert.True(t, ledger.expenses[0].Equal(models.NewMoney(1000).Decimal))
}

func TestAddLiveBatchUndoneWhenLedgerFails(t *testing.T) {
	store := newMemStore()
	ledger := &fakeLedger{fail: true}
	svc := NewService(store, ledger, nil, nil)

	_, err := svc.AddLiveBatch(context.Background(), models.LiveBatch{
		Name:         "broilers march",
		InitialCount: 50,
		UnitCost:     models.NewMoney(20),
	})
	require.Error(t, err)
	assert.Empty(t, store.live)
}

func TestUpdateLiveBatchRejectsStageRegression(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)

	b, err := svc.AddLiveBatch(context.Background(), models.LiveBatch{
		Name: "layers", InitialCount: 30, Stage: models.StageFinishing,
	})
	require.NoError(t, err)

	b.Stage = models.StageChick
	_, err = svc.UpdateLiveBatch(context.Background(), b)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRecordMortality(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	updated, err := svc.RecordMortality(ctx, b.ID, 3, "heat stress")
	require.NoError(t, err)
	assert.Equal(t, 47, updated.CurrentCount)
	assert.Equal(t, 3, updated.Mortality)

	require.Len(t, store.invTxs, 1)
	row := store.invTxs[0]
	assert.Equal(t, models.InvTxMortality, row.Type)
	assert.Equal(t, float64(-3), row.QuantityChanged)

	_, err = svc.RecordMortality(ctx, b.ID, 100, "impossible")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)
}

func TestDeductLiveWritesSaleRow(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	require.NoError(t, svc.DeductLive(ctx, b.ID, 10, "order-1", "sale for order order-1"))

	got, err := svc.GetLiveBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.CurrentCount)

	require.Len(t, store.invTxs, 1)
	assert.Equal(t, models.InvTxSale, store.invTxs[0].Type)
	assert.Equal(t, float64(-10), store.invTxs[0].QuantityChanged)
	assert.Equal(t, "order-1", store.invTxs[0].OrderID)
}

func TestDeductLiveInsufficient(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 5})
	require.NoError(t, err)

	err = svc.DeductLive(ctx, b.ID, 6, "order-1", "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)

	got, _ := svc.GetLiveBatch(ctx, b.ID)
	assert.Equal(t, 5, got.CurrentCount, "no partial deduction")
	assert.Empty(t, store.invTxs)
}

func TestRestoreLiveCapsAtInitialCount(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)
	require.NoError(t, svc.DeductLive(ctx, b.ID, 10, "order-1", "sale"))

	require.NoError(t, svc.RestoreLive(ctx, b.ID, 15, "order-1", "return"))
	got, _ := svc.GetLiveBatch(ctx, b.ID)
	assert.Equal(t, 50, got.CurrentCount)
}

func TestRecordWeightSampleIsBestEffortPath(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	require.NoError(t, svc.RecordWeightSample(ctx, b.ID, models.WeightSample{AvgWeightKg: 1.8, SampleSize: 10}))
	assert.Equal(t, 1, store.weightSampleWrites)

	got, _ := svc.GetLiveBatch(ctx, b.ID)
	require.Len(t, got.WeightSamples, 1)
	assert.False(t, got.WeightSamples[0].Date.IsZero())
}

func TestDeductDressedPartType(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddDressedBatch(ctx, models.DressedBatch{
		CurrentCount: 20,
		PartsCount:   map[string]int{"wings": 40, "thighs": 40},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeductDressed(ctx, b.ID, "wings", 10, "order-2", "sale"))
	got, _ := svc.GetDressedBatch(ctx, b.ID)
	assert.Equal(t, 30, got.PartsCount["wings"])
	assert.Equal(t, 20, got.CurrentCount, "whole count untouched by part sale")

	err = svc.DeductDressed(ctx, b.ID, "wings", 31, "order-3", "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)

	var detail *models.InsufficientInventoryError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, "wings", detail.PartType)
}

func TestDeductDressedWholeUnitsAdjustsActualCount(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddDressedBatch(ctx, models.DressedBatch{
		CurrentCount:    20,
		ActualUnitCount: intPtr(20),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeductDressed(ctx, b.ID, "", 5, "order-4", "sale"))
	got, _ := svc.GetDressedBatch(ctx, b.ID)
	assert.Equal(t, 15, got.CurrentCount)
	require.NotNil(t, got.ActualUnitCount)
	assert.Equal(t, 15, *got.ActualUnitCount)
}

func TestRestoreDressedPart(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddDressedBatch(ctx, models.DressedBatch{CurrentCount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.RestoreDressed(ctx, b.ID, "wings", 4, "order-5", "return"))
	got, _ := svc.GetDressedBatch(ctx, b.ID)
	assert.Equal(t, 4, got.PartsCount["wings"])

	require.Len(t, store.invTxs, 1)
	assert.Equal(t, models.InvTxReturn, store.invTxs[0].Type)
	assert.Equal(t, float64(4), store.invTxs[0].QuantityChanged)
}

func TestAddStockItemBooksExpense(t *testing.T) {
	store := newMemStore()
	ledger := &fakeLedger{}
	svc := NewService(store, ledger, nil, nil)

	_, err := svc.AddStockItem(context.Background(), models.StockItem{
		Name:      "wood shavings",
		Quantity:  10,
		UnitPrice: models.NewMoney(15),
	})
	require.NoError(t, err)
	require.Len(t, ledger.expenses, 1)
	assert.True(t, ledger.expenses[0].Equal(models.NewMoney(150).Decimal))
}

func TestEveryQuantityChangeHasExactlyOneAuditRow(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	require.NoError(t, svc.DeductLive(ctx, b.ID, 10, "order-1", "sale"))
	_, err = svc.RecordMortality(ctx, b.ID, 2, "disease")
	require.NoError(t, err)
	require.NoError(t, svc.RestoreLive(ctx, b.ID, 10, "order-1", "return"))

	rows, err := svc.ListInventoryTransactions(ctx, models.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDeductDressedLegacyPartsTracksLimitingPart(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	// Legacy record: no actual count, current equals the parts total, so the
	// limiting part (5 breasts) bounds the sellable whole units.
	b, err := svc.AddDressedBatch(ctx, models.DressedBatch{
		CurrentCount: 15,
		PartsCount:   map[string]int{"breast": 5, "wings": 10},
	})
	require.NoError(t, err)

	avail, err := svc.AvailableDressed(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, avail)

	require.NoError(t, svc.DeductDressed(ctx, b.ID, "", 3, "order-6", "sale"))

	got, _ := svc.GetDressedBatch(ctx, b.ID)
	assert.Equal(t, 2, got.PartsCount["breast"], "each part gives up the sold units")
	assert.Equal(t, 7, got.PartsCount["wings"])
	assert.Equal(t, 9, got.CurrentCount, "current stays in sync with the parts total")

	avail, err = svc.AvailableDressed(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, avail, "availability shrinks with the limiting part")

	err = svc.DeductDressed(ctx, b.ID, "", 3, "order-7", "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)
}

func TestDeductLiveRolledBackWhenAuditRowFails(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	store.failInvTx = -1
	err = svc.DeductLive(ctx, b.ID, 10, "order-1", "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRemoteStore)

	got, _ := svc.GetLiveBatch(ctx, b.ID)
	assert.Equal(t, 50, got.CurrentCount, "deduction undone when its audit row cannot land")
	assert.Empty(t, store.invTxs)
}

func TestRecordMortalityRolledBackWhenAuditRowFails(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddLiveBatch(ctx, models.LiveBatch{Name: "broilers", InitialCount: 50})
	require.NoError(t, err)

	store.failInvTx = -1
	_, err = svc.RecordMortality(ctx, b.ID, 2, "disease")
	require.Error(t, err)

	got, _ := svc.GetLiveBatch(ctx, b.ID)
	assert.Equal(t, 50, got.CurrentCount)
	assert.Equal(t, 0, got.Mortality)
}

func TestDeductDressedRolledBackWhenAuditRowFails(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	b, err := svc.AddDressedBatch(ctx, models.DressedBatch{
		CurrentCount: 20,
		PartsCount:   map[string]int{"wings": 40},
	})
	require.NoError(t, err)

	store.failInvTx = -1
	err = svc.DeductDressed(ctx, b.ID, "wings", 10, "order-2", "sale")
	require.Error(t, err)

	got, _ := svc.GetDressedBatch(ctx, b.ID)
	assert.Equal(t, 40, got.PartsCount["wings"], "part count undone")
}
