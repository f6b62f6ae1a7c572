package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// fakeStore is an in-memory ledger store with programmable failures.
type fakeStore struct {
	mu      sync.Mutex
	balance models.Balance
	txs     map[string]models.Transaction

	failInsert     int
	failSetBalance int
	failDeleteTx   int

	// onGetBalance fires once on the next balance read, then disarms.
	onGetBalance func()
	// balanceLog records every balance value written, in order.
	balanceLog []models.Money
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		balance: models.Balance{ID: models.BalanceID},
		txs:     map[string]models.Transaction{},
	}
}

func remoteErr(op string) error {
	return &models.RemoteStoreError{Collection: "transactions", Op: op, Err: errors.New("connection reset")}
}

func (f *fakeStore) GetBalance(ctx context.Context) (models.Balance, error) {
	f.mu.Lock()
	hook := f.onGetBalance
	f.onGetBalance = nil
	bal := f.balance
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return bal, nil
}

func (f *fakeStore) SetBalance(ctx context.Context, b models.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetBalance != 0 {
		f.failSetBalance--
		return remoteErr("set_balance")
	}
	f.balance = b
	f.balanceLog = append(f.balanceLog, b.Amount)
	return nil
}

func (f *fakeStore) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != 0 {
		f.failInsert--
		return remoteErr("insert")
	}
	f.txs[tx.ID] = tx
	return nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return models.Transaction{}, &models.NotFoundError{Collection: "transactions", ID: id}
	}
	return tx, nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteTx != 0 {
		f.failDeleteTx--
		return remoteErr("delete")
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Transaction, 0, len(f.txs))
	for _, tx := range f.txs {
		out = append(out, tx)
	}
	return out, nil
}

// sumSigned recomputes the balance from the stored history.
func (f *fakeStore) sumSigned() models.Money {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := models.NewMoney(0)
	for _, tx := range f.txs {
		total = total.Plus(tx.SignedEffect())
	}
	return total
}

func TestRecordFundIncreasesBalance(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	tx, err := svc.RecordFund(context.Background(), models.NewMoney(1000), "seed capital")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFund, tx.Type)
	assert.True(t, store.balance.Amount.Equal(models.NewMoney(1000).Decimal))
	assert.Len(t, store.txs, 1)
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)

	_, err := svc.RecordExpense(context.Background(), models.NewMoney(0), "nothing")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	_, err := svc.RecordFund(context.Background(), models.NewMoney(100), "seed")
	require.NoError(t, err)

	_, err = svc.RecordWithdrawal(context.Background(), models.NewMoney(500), "too much")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	var detail *models.InsufficientFundsError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.Equal(models.NewMoney(100).Decimal))

	// Nothing beyond the original fund landed.
	assert.Len(t, store.txs, 1)
	assert.True(t, store.balance.Amount.Equal(models.NewMoney(100).Decimal))
}

func TestRecordRetriesTransientWrites(t *testing.T) {
	store := newFakeStore()
	store.failInsert = 2
	svc := NewService(store, nil, nil)

	_, err := svc.RecordIncome(context.Background(), models.NewMoney(250), "sale")
	require.NoError(t, err)
	assert.True(t, store.balance.Amount.Equal(models.NewMoney(250).Decimal))
}

func TestRecordRollsBackTransactionWhenBalanceWriteFails(t *testing.T) {
	store := newFakeStore()
	store.failSetBalance = -1 // always fail
	svc := NewService(store, nil, nil)

	_, err := svc.RecordIncome(context.Background(), models.NewMoney(250), "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRemoteStore)

	// The closure invariant holds: no orphan transaction, balance untouched.
	assert.Empty(t, store.txs)
	assert.True(t, store.balance.Amount.IsZero())
}

func TestRecordReportsPartialFailureWhenRollbackFails(t *testing.T) {
	store := newFakeStore()
	store.failSetBalance = -1
	store.failDeleteTx = -1
	svc := NewService(store, nil, nil)

	_, err := svc.RecordIncome(context.Background(), models.NewMoney(250), "sale")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPartialFailure)

	var partial *models.PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"transaction"}, partial.Completed)
	assert.Contains(t, partial.StepErrors, "balance")
	assert.Contains(t, partial.StepErrors, "rollback")

	// The orphan transaction is detectable for reconciliation.
	assert.Len(t, store.txs, 1)
}

func TestReverseTransactionRestoresBalance(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	tx, err := svc.RecordFund(context.Background(), models.NewMoney(1000), "seed")
	require.NoError(t, err)

	require.NoError(t, svc.ReverseTransaction(context.Background(), tx.ID))
	assert.True(t, store.balance.Amount.IsZero())
	assert.Empty(t, store.txs)
}

func TestReverseUnknownTransaction(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)

	err := svc.ReverseTransaction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClearBalanceWithdrawsEverything(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	_, err := svc.RecordFund(context.Background(), models.NewMoney(700), "seed")
	require.NoError(t, err)

	tx, err := svc.ClearBalance(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionWithdrawal, tx.Type)
	assert.True(t, tx.Amount.Equal(models.NewMoney(700).Decimal))
	assert.True(t, store.balance.Amount.IsZero())
}

func TestClearBalanceAdmitsNoConcurrentDeposit(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordFund(ctx, models.NewMoney(1000), "seed")
	require.NoError(t, err)

	// Arm a deposit that races the clear: it fires while ClearBalance is
	// reading the balance and gets a generous head start.
	var wg sync.WaitGroup
	wg.Add(1)
	store.mu.Lock()
	store.onGetBalance = func() {
		go func() {
			defer wg.Done()
			_, depErr := svc.RecordFund(ctx, models.NewMoney(200), "late deposit")
			assert.NoError(t, depErr)
		}()
		time.Sleep(20 * time.Millisecond)
	}
	store.mu.Unlock()

	_, err = svc.ClearBalance(ctx, "")
	require.NoError(t, err)
	wg.Wait()

	// Whichever order the two settle in, the clearing withdrawal must leave
	// an empty balance at its point in the serial history.
	sawZero := false
	for _, amount := range store.balanceLog {
		if amount.IsZero() {
			sawZero = true
		}
	}
	assert.True(t, sawZero, "clearing withdrawal skipped over the concurrent deposit")
	assert.True(t, store.balance.Amount.Equal(store.sumSigned().Decimal))
}

func TestClearBalanceAtZeroIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)

	tx, err := svc.ClearBalance(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, tx.ID)
	assert.Empty(t, store.txs)
}

func TestBalanceEqualsSignedSumAcrossMixedHistory(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordFund(ctx, models.NewMoney(10000), "seed")
	require.NoError(t, err)
	_, err = svc.RecordIncome(ctx, models.NewMoney(5000), "sale")
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, models.NewMoney(1200), "vet visit")
	require.NoError(t, err)
	_, err = svc.RecordStockExpense(ctx, models.NewMoney(800), "bedding")
	require.NoError(t, err)
	_, err = svc.RecordWithdrawal(ctx, models.NewMoney(3000), "owner draw")
	require.NoError(t, err)

	assert.True(t, store.balance.Amount.Equal(store.sumSigned().Decimal),
		"balance %s != signed sum %s", store.balance.Amount, store.sumSigned())
	assert.True(t, store.balance.Amount.Equal(models.NewMoney(10000).Decimal))
}
