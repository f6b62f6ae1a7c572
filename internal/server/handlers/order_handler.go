package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/orders"
)

// OrderHandler exposes the order lifecycle operations.
type OrderHandler struct {
	svc    *orders.Service
	logger *zap.Logger
}

// NewOrderHandler constructs the HTTP handler adapter.
func NewOrderHandler(svc *orders.Service, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{svc: svc, logger: logger}
}

// Create records a new sale.
func (h *OrderHandler) Create(c *gin.Context) {
	var o models.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), o)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update replaces an order, settling the payment delta against the ledger.
func (h *OrderHandler) Update(c *gin.Context) {
	var o models.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	o.ID = c.Param("id")

	updated, err := h.svc.Update(c.Request.Context(), o)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete unwinds an order: refund, inventory restore, record removal.
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get loads one order.
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// List returns the paginated order query.
func (h *OrderHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
