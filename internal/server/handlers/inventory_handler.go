package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/inventory"
)

// InventoryHandler exposes live batches, dressed batches, general stock, the
// inventory transaction trail and batch relationships.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// ── Live batches ────────────────────────────────────────────────────────────

func (h *InventoryHandler) CreateLiveBatch(c *gin.Context) {
	var b models.LiveBatch
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddLiveBatch(c.Request.Context(), b)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *InventoryHandler) UpdateLiveBatch(c *gin.Context) {
	var b models.LiveBatch
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b.ID = c.Param("id")
	updated, err := h.svc.UpdateLiveBatch(c.Request.Context(), b)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *InventoryHandler) DeleteLiveBatch(c *gin.Context) {
	if err := h.svc.DeleteLiveBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) GetLiveBatch(c *gin.Context) {
	b, err := h.svc.GetLiveBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *InventoryHandler) ListLiveBatches(c *gin.Context) {
	list, err := h.svc.ListLiveBatches(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type mortalityRequest struct {
	Count  int    `json:"count" binding:"required"`
	Reason string `json:"reason"`
}

// RecordMortality deducts dead birds from a live batch.
func (h *InventoryHandler) RecordMortality(c *gin.Context) {
	var req mortalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b, err := h.svc.RecordMortality(c.Request.Context(), c.Param("id"), req.Count, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RecordWeightSample appends a weight measurement to a live batch.
func (h *InventoryHandler) RecordWeightSample(c *gin.Context) {
	var sample models.WeightSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.RecordWeightSample(c.Request.Context(), c.Param("id"), sample); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// ── Dressed batches ─────────────────────────────────────────────────────────

func (h *InventoryHandler) CreateDressedBatch(c *gin.Context) {
	var b models.DressedBatch
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddDressedBatch(c.Request.Context(), b)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *InventoryHandler) UpdateDressedBatch(c *gin.Context) {
	var b models.DressedBatch
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b.ID = c.Param("id")
	updated, err := h.svc.UpdateDressedBatch(c.Request.Context(), b)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *InventoryHandler) DeleteDressedBatch(c *gin.Context) {
	if err := h.svc.DeleteDressedBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) GetDressedBatch(c *gin.Context) {
	b, err := h.svc.GetDressedBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *InventoryHandler) ListDressedBatches(c *gin.Context) {
	list, err := h.svc.ListDressedBatches(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Stock ───────────────────────────────────────────────────────────────────

func (h *InventoryHandler) CreateStockItem(c *gin.Context) {
	var it models.StockItem
	if err := c.ShouldBindJSON(&it); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddStockItem(c.Request.Context(), it)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *InventoryHandler) UpdateStockItem(c *gin.Context) {
	var it models.StockItem
	if err := c.ShouldBindJSON(&it); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	it.ID = c.Param("id")
	updated, err := h.svc.UpdateStockItem(c.Request.Context(), it)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *InventoryHandler) DeleteStockItem(c *gin.Context) {
	if err := h.svc.DeleteStockItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) GetStockItem(c *gin.Context) {
	it, err := h.svc.GetStockItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *InventoryHandler) ListStock(c *gin.Context) {
	list, err := h.svc.ListStock(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Inventory transactions ──────────────────────────────────────────────────

// ListInventoryTransactions returns the append-only quantity audit trail.
func (h *InventoryHandler) ListInventoryTransactions(c *gin.Context) {
	list, err := h.svc.ListInventoryTransactions(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Batch relationships ─────────────────────────────────────────────────────

func (h *InventoryHandler) CreateRelationship(c *gin.Context) {
	var rel models.BatchRelationship
	if err := c.ShouldBindJSON(&rel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddRelationship(c.Request.Context(), rel)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *InventoryHandler) UpdateRelationship(c *gin.Context) {
	var rel models.BatchRelationship
	if err := c.ShouldBindJSON(&rel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	rel.ID = c.Param("id")
	updated, err := h.svc.UpdateRelationship(c.Request.Context(), rel)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRelationship soft-deletes an edge; ?hard=true removes the row.
func (h *InventoryHandler) DeleteRelationship(c *gin.Context) {
	hard := c.Query("hard") == "true"
	if err := h.svc.DeleteRelationship(c.Request.Context(), c.Param("id"), hard); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRelationships lists edges; ?include_deleted=true keeps soft-deleted rows.
func (h *InventoryHandler) ListRelationships(c *gin.Context) {
	opts := parseListOptions(c)
	delete(opts.Filter, "include_deleted")
	delete(opts.Filter, "hard")
	activeOnly := c.Query("include_deleted") != "true"

	list, err := h.svc.ListRelationships(c.Request.Context(), opts, activeOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
