// Package orders sequences order create/update/delete across the ledger and
// inventory engines. None of the steps share a transaction, so the package
// owns the compensation logic that keeps the two engines consistent when a
// step fails mid-flight.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/observability"
	"github.com/mamadbah2/farmledger/internal/service/audit"
	"github.com/mamadbah2/farmledger/pkg/keylock"
)

// Store is the slice of the composite store the controller needs.
type Store interface {
	InsertOrder(ctx context.Context, o models.Order) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ReplaceOrder(ctx context.Context, o models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, opts models.ListOptions) ([]models.Order, error)
}

// Ledger is the payment side of an order.
type Ledger interface {
	RecordIncome(ctx context.Context, amount models.Money, desc string) (models.Transaction, error)
	RecordExpense(ctx context.Context, amount models.Money, desc string) (models.Transaction, error)
}

// Inventory moves batch quantities on behalf of an order.
type Inventory interface {
	AvailableLive(ctx context.Context, batchID string) (int, error)
	AvailableDressed(ctx context.Context, batchID, partType string) (int, error)
	DeductLive(ctx context.Context, batchID string, count int, orderID, reason string) error
	RestoreLive(ctx context.Context, batchID string, count int, orderID, reason string) error
	DeductDressed(ctx context.Context, batchID, partType string, count int, orderID, reason string) error
	RestoreDressed(ctx context.Context, batchID, partType string, count int, orderID, reason string) error
}

// Markers persists which delete steps already completed, so a retried delete
// does not refund or restore twice.
type Markers interface {
	SaveMarker(ctx context.Context, key string, completed []string) error
	LoadMarker(ctx context.Context, key string) ([]string, bool, error)
	DeleteMarker(ctx context.Context, key string) error
}

// Service is the order lifecycle controller.
type Service struct {
	store     Store
	ledger    Ledger
	inventory Inventory
	markers   Markers
	audit     audit.Logger
	locks     *keylock.KeyLock
	logger    *zap.Logger
}

// NewService wires the controller.
func NewService(store Store, ledger Ledger, inventory Inventory, markers Markers, auditLog audit.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		store:     store,
		ledger:    ledger,
		inventory: inventory,
		markers:   markers,
		audit:     auditLog,
		locks:     keylock.New(),
		logger:    logger,
	}
}

func orderKey(id string) string { return "order:" + id }

func deleteMarker(id string) string { return "order_delete:" + id }

// deduct routes the order's unit deduction to the right batch kind.
func (s *Service) deduct(ctx context.Context, o models.Order) error {
	reason := fmt.Sprintf("sale for order %s", o.ID)
	if o.InventoryType == models.BatchTypeDressed {
		return s.inventory.DeductDressed(ctx, o.BatchID, o.PartType, o.Count, o.ID, reason)
	}
	return s.inventory.DeductLive(ctx, o.BatchID, o.Count, o.ID, reason)
}

// restore undoes a prior deduction for the order.
func (s *Service) restore(ctx context.Context, o models.Order) error {
	reason := fmt.Sprintf("return for order %s", o.ID)
	if o.InventoryType == models.BatchTypeDressed {
		return s.inventory.RestoreDressed(ctx, o.BatchID, o.PartType, o.Count, o.ID, reason)
	}
	return s.inventory.RestoreLive(ctx, o.BatchID, o.Count, o.ID, reason)
}

// available reads how many units the order's target batch can sell.
func (s *Service) available(ctx context.Context, o models.Order) (int, error) {
	if o.InventoryType == models.BatchTypeDressed {
		return s.inventory.AvailableDressed(ctx, o.BatchID, o.PartType)
	}
	return s.inventory.AvailableLive(ctx, o.BatchID)
}

// Create validates the order for its calculation mode, deducts the sourced
// batch unless the mode is size-only, records any payment as income, and
// stores the order. Each later step compensates the earlier ones on failure.
func (s *Service) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	o.Normalize()
	if err := o.Validate(); err != nil {
		return models.Order{}, err
	}

	s.locks.Lock(orderKey(o.ID))
	defer s.locks.Unlock(orderKey(o.ID))

	deducted := false
	if o.DeductsInventory() {
		if err := s.deduct(ctx, o); err != nil {
			return models.Order{}, err
		}
		deducted = true
	}

	var paymentTx models.Transaction
	if o.AmountPaid.IsPositive() {
		tx, err := s.ledger.RecordIncome(ctx, o.AmountPaid,
			fmt.Sprintf("payment for order %s (%s)", o.ID, o.Customer))
		if err != nil {
			s.compensateCreate(ctx, o, deducted, models.Transaction{})
			return models.Order{}, err
		}
		paymentTx = tx
	}

	if err := s.store.InsertOrder(ctx, o); err != nil {
		s.compensateCreate(ctx, o, deducted, paymentTx)
		return models.Order{}, err
	}

	s.audit.LogAction(ctx, "create", "chickens", o.ID, nil, o)
	s.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer", o.Customer),
		zap.String("total", o.Total().String()))
	return o, nil
}

// compensateCreate unwinds whatever a failed create already applied. Failures
// here are logged and counted, not returned: the caller already has the
// primary error.
func (s *Service) compensateCreate(ctx context.Context, o models.Order, deducted bool, paymentTx models.Transaction) {
	if deducted {
		if err := s.restore(ctx, o); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.create", "restore_inventory").Inc()
			s.logger.Error("create compensation: inventory not restored",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if paymentTx.ID != "" {
		if _, err := s.ledger.RecordExpense(ctx, paymentTx.Amount,
			fmt.Sprintf("reversal of payment for failed order %s", o.ID)); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.create", "refund").Inc()
			s.logger.Error("create compensation: payment not reversed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

// Update replaces an order. The payment delta moves the ledger (additional
// payment as income, a reduced payment as a refund expense), and the
// inventory deduction is re-applied under the new count and batch selection.
func (s *Service) Update(ctx context.Context, o models.Order) (models.Order, error) {
	s.locks.Lock(orderKey(o.ID))
	defer s.locks.Unlock(orderKey(o.ID))

	old, err := s.store.GetOrder(ctx, o.ID)
	if err != nil {
		return models.Order{}, err
	}

	o.CreatedAt = old.CreatedAt
	o.UpdatedAt = time.Now().UTC()
	if o.OrderDate.IsZero() {
		o.OrderDate = old.OrderDate
	}
	o.Normalize()
	if err := o.Validate(); err != nil {
		return models.Order{}, err
	}

	// Pre-check the new deduction before anything moves, counting the units
	// the stored order will return to the same batch. Insufficiency must
	// surface with no partial state.
	if o.DeductsInventory() {
		avail, err := s.available(ctx, o)
		if err != nil {
			return models.Order{}, err
		}
		if old.DeductsInventory() && old.BatchID == o.BatchID &&
			old.InventoryType == o.InventoryType && old.PartType == o.PartType {
			avail += old.Count
		}
		if o.Count > avail {
			return models.Order{}, &models.InsufficientInventoryError{
				BatchID:   o.BatchID,
				PartType:  o.PartType,
				Available: avail,
				Requested: o.Count,
			}
		}
	}

	// Re-apply the deduction: put the old units back, take the new ones out.
	// A failed new deduction puts the old one back so the stored order still
	// matches the batch.
	restoredOld := false
	if old.DeductsInventory() {
		if err := s.restore(ctx, old); err != nil {
			return models.Order{}, err
		}
		restoredOld = true
	}
	if o.DeductsInventory() {
		if err := s.deduct(ctx, o); err != nil {
			s.undoReapply(ctx, old, o, restoredOld, false)
			return models.Order{}, err
		}
	}

	// Ledger last: a payment-delta failure only needs the inventory undone.
	delta := o.AmountPaid.Minus(old.AmountPaid)
	switch {
	case delta.IsPositive():
		if _, err := s.ledger.RecordIncome(ctx, delta,
			fmt.Sprintf("additional payment for order %s", o.ID)); err != nil {
			s.undoReapply(ctx, old, o, restoredOld, true)
			return models.Order{}, err
		}
	case delta.IsNegative():
		if _, err := s.ledger.RecordExpense(ctx, delta.Negated(),
			fmt.Sprintf("payment refund for order %s", o.ID)); err != nil {
			s.undoReapply(ctx, old, o, restoredOld, true)
			return models.Order{}, err
		}
	}

	if err := s.store.ReplaceOrder(ctx, o); err != nil {
		s.compensateUpdate(ctx, old, o, restoredOld, delta)
		return models.Order{}, err
	}

	s.audit.LogAction(ctx, "update", "chickens", o.ID, old, o)
	return o, nil
}

// undoReapply walks the inventory re-application back to the stored order's
// deduction. Failures are logged and counted, not returned: the caller
// already has the primary error.
func (s *Service) undoReapply(ctx context.Context, old, o models.Order, restoredOld, deductedNew bool) {
	if deductedNew && o.DeductsInventory() {
		if err := s.restore(ctx, o); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.update", "restore_new_deduction").Inc()
			s.logger.Error("update compensation: new deduction not restored",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if restoredOld {
		if err := s.deduct(ctx, old); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.update", "rededuct_old").Inc()
			s.logger.Error("update compensation: stored deduction not re-applied",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

// compensateUpdate unwinds a fully-applied update whose record write failed:
// reverse the payment delta, then walk the inventory back.
func (s *Service) compensateUpdate(ctx context.Context, old, o models.Order, restoredOld bool, delta models.Money) {
	switch {
	case delta.IsPositive():
		if _, err := s.ledger.RecordExpense(ctx, delta,
			fmt.Sprintf("reversal of payment for failed update of order %s", o.ID)); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.update", "reverse_payment").Inc()
			s.logger.Error("update compensation: payment not reversed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	case delta.IsNegative():
		if _, err := s.ledger.RecordIncome(ctx, delta.Negated(),
			fmt.Sprintf("reversal of refund for failed update of order %s", o.ID)); err != nil {
			observability.SagaStepFailures.WithLabelValues("order.update", "reverse_refund").Inc()
			s.logger.Error("update compensation: refund not reversed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	s.undoReapply(ctx, old, o, restoredOld, true)
}

// Delete step names, in execution order.
const (
	stepRefund    = "refund"
	stepRestore   = "restore_inventory"
	stepDeleteRec = "delete_record"
)

// Delete unwinds an order: refund the paid amount, restore the deducted
// units, remove the record. Every step is attempted even when an earlier one
// fails, and completed steps are persisted in a local marker so a retry after
// a partial failure skips what already applied.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Lock(orderKey(id))
	defer s.locks.Unlock(orderKey(id))

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	done := map[string]bool{}
	if s.markers != nil {
		if completed, ok, mErr := s.markers.LoadMarker(ctx, deleteMarker(id)); mErr == nil && ok {
			for _, step := range completed {
				done[step] = true
			}
		}
	}

	var completed []string
	stepErrs := map[string]error{}
	runStep := func(name string, fn func() error) {
		if done[name] {
			completed = append(completed, name)
			return
		}
		if err := fn(); err != nil {
			stepErrs[name] = err
			observability.SagaStepFailures.WithLabelValues("order.delete", name).Inc()
			s.logger.Error("order delete step failed",
				zap.String("order_id", id),
				zap.String("step", name),
				zap.Error(err))
			return
		}
		completed = append(completed, name)
	}

	runStep(stepRefund, func() error {
		if !o.AmountPaid.IsPositive() {
			return nil
		}
		_, err := s.ledger.RecordExpense(ctx, o.AmountPaid,
			fmt.Sprintf("refund for deleted order %s", id))
		return err
	})

	runStep(stepRestore, func() error {
		if !o.DeductsInventory() {
			return nil
		}
		return s.restore(ctx, o)
	})

	runStep(stepDeleteRec, func() error {
		return s.store.DeleteOrder(ctx, id)
	})

	if len(stepErrs) > 0 {
		if s.markers != nil {
			if mErr := s.markers.SaveMarker(ctx, deleteMarker(id), completed); mErr != nil {
				s.logger.Error("order delete marker not persisted",
					zap.String("order_id", id), zap.Error(mErr))
			}
		}
		return &models.PartialFailureError{
			Operation:  "order.delete",
			Completed:  completed,
			StepErrors: stepErrs,
		}
	}

	if s.markers != nil {
		if mErr := s.markers.DeleteMarker(ctx, deleteMarker(id)); mErr != nil {
			s.logger.Warn("order delete marker not cleared",
				zap.String("order_id", id), zap.Error(mErr))
		}
	}
	s.audit.LogAction(ctx, "delete", "chickens", id, o, nil)
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// List exposes the paginated read query.
func (s *Service) List(ctx context.Context, opts models.ListOptions) ([]models.Order, error) {
	return s.store.ListOrders(ctx, opts)
}
