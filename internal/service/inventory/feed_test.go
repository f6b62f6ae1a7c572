package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

func addTestFeed(t *testing.T, svc *Service, qty float64) models.FeedInventory {
	t.Helper()
	f, err := svc.AddFeedItem(context.Background(), models.FeedInventory{
		FeedType:   "starter",
		QuantityKg: qty,
		CostPerKg:  models.NewMoney(2),
	})
	require.NoError(t, err)
	return f
}

func TestAddFeedItemBooksExpense(t *testing.T) {
	store := newMemStore()
	ledger := &fakeLedger{}
	svc := NewService(store, ledger, nil, nil)

	f := addTestFeed(t, svc, 100)
	assert.Equal(t, models.FeedActive, f.Status)

	require.Len(t, ledger.expenses, 1)
	assert.True(t, ledger.expenses[0].Equal(models.NewMoney(200).Decimal))
}

func TestAddFeedConsumptionDeductsItem(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 100)

	_, err := svc.AddFeedConsumption(ctx, models.FeedConsumption{
		FeedID:             f.ID,
		BatchID:            "batch-1",
		QuantityConsumedKg: 30,
	})
	require.NoError(t, err)

	got, _ := svc.GetFeedItem(ctx, f.ID)
	assert.Equal(t, float64(70), got.QuantityKg)
	assert.Equal(t, models.FeedActive, got.Status)

	require.Len(t, store.invTxs, 1)
	assert.Equal(t, models.InvTxTransfer, store.invTxs[0].Type)
	assert.Equal(t, float64(-30), store.invTxs[0].QuantityChanged)
}

func TestAddFeedConsumptionFloorsAtZeroAndFlipsStatus(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 25)

	_, err := svc.AddFeedConsumption(ctx, models.FeedConsumption{
		FeedID:             f.ID,
		BatchID:            "batch-1",
		QuantityConsumedKg: 30,
	})
	require.NoError(t, err)

	got, _ := svc.GetFeedItem(ctx, f.ID)
	assert.Equal(t, float64(0), got.QuantityKg)
	assert.Equal(t, models.FeedConsumed, got.Status)
}

func TestDeleteFeedConsumptionRestoresItem(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 40)
	con, err := svc.AddFeedConsumption(ctx, models.FeedConsumption{
		FeedID:             f.ID,
		BatchID:            "batch-1",
		QuantityConsumedKg: 40,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFeedConsumption(ctx, con.ID))

	got, _ := svc.GetFeedItem(ctx, f.ID)
	assert.Equal(t, float64(40), got.QuantityKg)
	assert.Equal(t, models.FeedActive, got.Status, "restore reactivates the lot")

	require.Len(t, store.invTxs, 2)
	assert.Equal(t, models.InvTxReturn, store.invTxs[1].Type)
	assert.Equal(t, float64(40), store.invTxs[1].QuantityChanged)
}

func TestAddFeedAssignmentRequiresExistingItem(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)

	_, err := svc.AddFeedAssignment(context.Background(), models.BatchAssignment{
		FeedID:             "missing",
		BatchID:            "batch-1",
		AssignedQuantityKg: 10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLowFeedAlertsSeverity(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 200)

	_, err := svc.AddFeedAssignment(ctx, models.BatchAssignment{
		FeedID: f.ID, BatchID: "warn-batch", AssignedQuantityKg: 100,
	})
	require.NoError(t, err)
	_, err = svc.AddFeedAssignment(ctx, models.BatchAssignment{
		FeedID: f.ID, BatchID: "crit-batch", AssignedQuantityKg: 100,
	})
	require.NoError(t, err)
	_, err = svc.AddFeedAssignment(ctx, models.BatchAssignment{
		FeedID: f.ID, BatchID: "ok-batch", AssignedQuantityKg: 100,
	})
	require.NoError(t, err)

	// warn-batch: 85 consumed -> 15% left. crit-batch: 95 -> 5%. ok-batch: 50.
	for batch, kg := range map[string]float64{"warn-batch": 85, "crit-batch": 95, "ok-batch": 50} {
		_, err = svc.AddFeedConsumption(ctx, models.FeedConsumption{
			FeedID: f.ID, BatchID: batch, QuantityConsumedKg: kg,
		})
		require.NoError(t, err)
	}

	alerts, err := svc.LowFeedAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byBatch := map[string]models.LowFeedAlert{}
	for _, a := range alerts {
		byBatch[a.BatchID] = a
	}
	assert.Equal(t, models.AlertWarning, byBatch["warn-batch"].Severity)
	assert.Equal(t, float64(15), byBatch["warn-batch"].RemainingKg)
	assert.Equal(t, models.AlertCritical, byBatch["crit-batch"].Severity)
	assert.Equal(t, "starter", byBatch["crit-batch"].FeedType)
}

func TestProjectedFeedNeeds(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 500)
	_, err := svc.AddFeedAssignment(ctx, models.BatchAssignment{
		FeedID: f.ID, BatchID: "batch-1", AssignedQuantityKg: 100,
	})
	require.NoError(t, err)

	// 40kg over a 4 day span: 10kg/day average.
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 5; day++ {
		_, err = svc.AddFeedConsumption(ctx, models.FeedConsumption{
			FeedID:             f.ID,
			BatchID:            "batch-1",
			QuantityConsumedKg: 8,
			Date:               start.AddDate(0, 0, day),
		})
		require.NoError(t, err)
	}

	projections, err := svc.ProjectedFeedNeeds(ctx, 7)
	require.NoError(t, err)
	require.Len(t, projections, 1)

	p := projections[0]
	assert.Equal(t, "batch-1", p.BatchID)
	assert.InDelta(t, 10, p.AvgDailyKg, 0.001)
	assert.InDelta(t, 60, p.RemainingKg, 0.001)
	assert.InDelta(t, 6, p.DaysLeft, 0.001)
	assert.InDelta(t, 70, p.ProjectedNeedKg, 0.001)
	assert.Equal(t, 7, p.HorizonDays)
}

func TestProjectedFeedNeedsRejectsBadHorizon(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil, nil)

	_, err := svc.ProjectedFeedNeeds(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAddFeedConsumptionRolledBackWhenAuditRowFails(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	f := addTestFeed(t, svc, 100)

	store.failInvTx = -1
	_, err := svc.AddFeedConsumption(ctx, models.FeedConsumption{
		FeedID:             f.ID,
		BatchID:            "batch-1",
		QuantityConsumedKg: 30,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRemoteStore)

	got, gerr := svc.GetFeedItem(ctx, f.ID)
	require.NoError(t, gerr)
	assert.Equal(t, float64(100), got.QuantityKg, "quantity undone when its audit row cannot land")
	assert.Empty(t, store.consumption, "consumption record undone too")
}
