// Package ledger owns the cash balance and the transaction history. All
// balance mutations go through this engine so the closure invariant
// (balance == sum of signed transaction amounts) is enforced in one place.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/audit"
	"github.com/mamadbah2/farmledger/pkg/keylock"
)

// balanceKey serializes every balance mutation behind one lock.
const balanceKey = "balance"

// storeAttempts bounds the retry loop around each remote write.
const storeAttempts = 3

// Store is the slice of the composite store the ledger engine needs.
type Store interface {
	GetBalance(ctx context.Context) (models.Balance, error)
	SetBalance(ctx context.Context, b models.Balance) error
	InsertTransaction(ctx context.Context, tx models.Transaction) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error)
}

// Service is the ledger engine.
type Service struct {
	store  Store
	audit  audit.Logger
	locks  *keylock.KeyLock
	logger *zap.Logger
}

// NewService wires the ledger engine.
func NewService(store Store, auditLog audit.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		store:  store,
		audit:  auditLog,
		locks:  keylock.New(),
		logger: logger,
	}
}

// retryStore retries op while it keeps failing with a transient remote
// error; validation and not-found errors pass through immediately.
func (s *Service) retryStore(ctx context.Context, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond

	var err error
	for attempt := 0; attempt < storeAttempts; attempt++ {
		if err = op(ctx); err == nil || !errors.Is(err, models.ErrRemoteStore) {
			return err
		}
		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// RecordFund adds capital to the balance.
func (s *Service) RecordFund(ctx context.Context, amount models.Money, desc string) (models.Transaction, error) {
	return s.record(ctx, models.TransactionFund, amount, desc)
}

// RecordIncome records a sale payment.
func (s *Service) RecordIncome(ctx context.Context, amount models.Money, desc string) (models.Transaction, error) {
	return s.record(ctx, models.TransactionIncome, amount, desc)
}

// RecordExpense records an operating expense.
func (s *Service) RecordExpense(ctx context.Context, amount models.Money, desc string) (models.Transaction, error) {
	return s.record(ctx, models.TransactionExpense, amount, desc)
}

// RecordStockExpense records a stock purchase expense.
func (s *Service) RecordStockExpense(ctx context.Context, amount models.Money, desc string) (models.Transaction, error) {
	return s.record(ctx, models.TransactionStockExpense, amount, desc)
}

// RecordWithdrawal takes cash out, failing with InsufficientFunds when the
// amount exceeds the current balance.
func (s *Service) RecordWithdrawal(ctx context.Context, amount models.Money, desc string) (models.Transaction, error) {
	return s.record(ctx, models.TransactionWithdrawal, amount, desc)
}

// record runs the two-write unit of work under the balance lock.
func (s *Service) record(ctx context.Context, txType models.TransactionType, amount models.Money, desc string) (models.Transaction, error) {
	s.locks.Lock(balanceKey)
	defer s.locks.Unlock(balanceKey)
	return s.recordLocked(ctx, txType, amount, desc)
}

// recordLocked appends the transaction, then moves the balance. The caller
// must hold the balance lock. A half-applied pair is a closure violation, so
// the first write is rolled back when the second cannot land.
func (s *Service) recordLocked(ctx context.Context, txType models.TransactionType, amount models.Money, desc string) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, models.Validationf("amount", "must be positive")
	}

	bal, err := s.store.GetBalance(ctx)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:          uuid.NewString(),
		Type:        txType,
		Amount:      amount,
		Description: desc,
		Date:        time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}

	if txType == models.TransactionWithdrawal && amount.GreaterThan(bal.Amount.Decimal) {
		return models.Transaction{}, &models.InsufficientFundsError{
			Available: bal.Amount,
			Requested: amount,
		}
	}

	if err := s.retryStore(ctx, func(ctx context.Context) error {
		return s.store.InsertTransaction(ctx, tx)
	}); err != nil {
		return models.Transaction{}, err
	}

	newBal := models.Balance{ID: models.BalanceID, Amount: bal.Amount.Plus(tx.SignedEffect())}
	if err := s.retryStore(ctx, func(ctx context.Context) error {
		return s.store.SetBalance(ctx, newBal)
	}); err != nil {
		// Undo the transaction so the closure invariant holds.
		if delErr := s.retryStore(ctx, func(ctx context.Context) error {
			return s.store.DeleteTransaction(ctx, tx.ID)
		}); delErr != nil {
			s.logger.Error("ledger half-applied: transaction stored, balance not updated",
				zap.String("transaction_id", tx.ID),
				zap.Error(err),
				zap.Error(delErr))
			return models.Transaction{}, &models.PartialFailureError{
				Operation: "ledger.record",
				Completed: []string{"transaction"},
				StepErrors: map[string]error{
					"balance":  err,
					"rollback": delErr,
				},
			}
		}
		return models.Transaction{}, err
	}

	s.audit.LogAction(ctx, "create", "transactions", tx.ID, nil, tx)
	s.audit.LogAction(ctx, "update", "balance", "1", bal, newBal)
	s.logger.Info("ledger entry recorded",
		zap.String("type", string(txType)),
		zap.String("amount", amount.String()),
		zap.String("balance", newBal.Amount.String()))
	return tx, nil
}

// ReverseTransaction applies the inverse signed effect of a stored entry to
// the balance, then removes the entry.
func (s *Service) ReverseTransaction(ctx context.Context, id string) error {
	s.locks.Lock(balanceKey)
	defer s.locks.Unlock(balanceKey)

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	bal, err := s.store.GetBalance(ctx)
	if err != nil {
		return err
	}

	newBal := models.Balance{ID: models.BalanceID, Amount: bal.Amount.Minus(tx.SignedEffect())}
	if err := s.retryStore(ctx, func(ctx context.Context) error {
		return s.store.SetBalance(ctx, newBal)
	}); err != nil {
		return err
	}

	if err := s.retryStore(ctx, func(ctx context.Context) error {
		return s.store.DeleteTransaction(ctx, id)
	}); err != nil {
		// Put the balance back; otherwise closure breaks the other way.
		if restoreErr := s.retryStore(ctx, func(ctx context.Context) error {
			return s.store.SetBalance(ctx, bal)
		}); restoreErr != nil {
			s.logger.Error("reversal half-applied: balance moved, transaction still stored",
				zap.String("transaction_id", id),
				zap.Error(err),
				zap.Error(restoreErr))
			return &models.PartialFailureError{
				Operation: "ledger.reverse",
				Completed: []string{"balance"},
				StepErrors: map[string]error{
					"delete_transaction": err,
					"rollback":           restoreErr,
				},
			}
		}
		return err
	}

	s.audit.LogAction(ctx, "delete", "transactions", id, tx, nil)
	s.audit.LogAction(ctx, "update", "balance", "1", bal, newBal)
	return nil
}

// ClearBalance withdraws the entire current balance as a single transaction.
// A zero balance is a no-op. The read and the withdrawal share one lock hold
// so a concurrent deposit cannot slip in between and leave residue.
func (s *Service) ClearBalance(ctx context.Context, desc string) (models.Transaction, error) {
	s.locks.Lock(balanceKey)
	defer s.locks.Unlock(balanceKey)

	bal, err := s.store.GetBalance(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	if bal.Amount.IsZero() {
		return models.Transaction{}, nil
	}
	if desc == "" {
		desc = "balance cleared"
	}
	return s.recordLocked(ctx, models.TransactionWithdrawal, bal.Amount, desc)
}

// CurrentBalance returns the stored balance.
func (s *Service) CurrentBalance(ctx context.Context) (models.Balance, error) {
	return s.store.GetBalance(ctx)
}

// ListTransactions exposes the history for the UI layer.
func (s *Service) ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, opts)
}
