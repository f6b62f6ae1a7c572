package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/ledger"
)

// LedgerHandler exposes the cash ledger operations.
type LedgerHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(svc *ledger.Service, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{svc: svc, logger: logger}
}

type recordTransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required"`
	Amount      float64                `json:"amount" binding:"required"`
	Description string                 `json:"description"`
}

// Record creates one ledger entry of the requested type.
func (h *LedgerHandler) Record(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	amount := models.MoneyFromFloat(req.Amount)
	ctx := c.Request.Context()

	var (
		tx  models.Transaction
		err error
	)
	switch req.Type {
	case models.TransactionFund:
		tx, err = h.svc.RecordFund(ctx, amount, req.Description)
	case models.TransactionIncome:
		tx, err = h.svc.RecordIncome(ctx, amount, req.Description)
	case models.TransactionExpense:
		tx, err = h.svc.RecordExpense(ctx, amount, req.Description)
	case models.TransactionStockExpense:
		tx, err = h.svc.RecordStockExpense(ctx, amount, req.Description)
	case models.TransactionWithdrawal:
		tx, err = h.svc.RecordWithdrawal(ctx, amount, req.Description)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown transaction type"})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// Reverse undoes one ledger entry: inverse balance effect, then removal.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	if err := h.svc.ReverseTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns the transaction history.
func (h *LedgerHandler) List(c *gin.Context) {
	txs, err := h.svc.ListTransactions(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// Balance returns the current cash position.
func (h *LedgerHandler) Balance(c *gin.Context) {
	bal, err := h.svc.CurrentBalance(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

type clearBalanceRequest struct {
	Description string `json:"description"`
}

// ClearBalance withdraws the whole current balance in one entry.
func (h *LedgerHandler) ClearBalance(c *gin.Context) {
	var req clearBalanceRequest
	_ = c.ShouldBindJSON(&req)

	tx, err := h.svc.ClearBalance(c.Request.Context(), req.Description)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if tx.ID == "" {
		// Nothing to clear.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, tx)
}
