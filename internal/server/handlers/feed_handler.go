package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/service/inventory"
)

// FeedHandler exposes feed inventory, consumption, assignments and the
// low-feed read-side projections.
type FeedHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewFeedHandler constructs the HTTP handler adapter.
func NewFeedHandler(svc *inventory.Service, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{svc: svc, logger: logger}
}

// ── Feed items ──────────────────────────────────────────────────────────────

func (h *FeedHandler) CreateItem(c *gin.Context) {
	var f models.FeedInventory
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddFeedItem(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *FeedHandler) UpdateItem(c *gin.Context) {
	var f models.FeedInventory
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	f.ID = c.Param("id")
	updated, err := h.svc.UpdateFeedItem(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *FeedHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteFeedItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) GetItem(c *gin.Context) {
	f, err := h.svc.GetFeedItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FeedHandler) ListItems(c *gin.Context) {
	list, err := h.svc.ListFeedItems(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Consumption ─────────────────────────────────────────────────────────────

// RecordConsumption logs feed taken for a batch and deducts the feed item.
func (h *FeedHandler) RecordConsumption(c *gin.Context) {
	var con models.FeedConsumption
	if err := c.ShouldBindJSON(&con); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddFeedConsumption(c.Request.Context(), con)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DeleteConsumption removes a consumption record and restores the feed item.
func (h *FeedHandler) DeleteConsumption(c *gin.Context) {
	if err := h.svc.DeleteFeedConsumption(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) ListConsumption(c *gin.Context) {
	list, err := h.svc.ListFeedConsumption(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Assignments ─────────────────────────────────────────────────────────────

func (h *FeedHandler) CreateAssignment(c *gin.Context) {
	var a models.BatchAssignment
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	created, err := h.svc.AddFeedAssignment(c.Request.Context(), a)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *FeedHandler) DeleteAssignment(c *gin.Context) {
	if err := h.svc.DeleteFeedAssignment(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) ListAssignments(c *gin.Context) {
	list, err := h.svc.ListFeedAssignments(c.Request.Context(), parseListOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ── Projections ─────────────────────────────────────────────────────────────

// Alerts returns the batches whose assigned feed ran low.
func (h *FeedHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.LowFeedAlerts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Projections estimates feed needs over ?horizon_days (default 7).
func (h *FeedHandler) Projections(c *gin.Context) {
	horizon := 7
	if raw := c.Query("horizon_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horizon_days must be an integer"})
			return
		}
		horizon = v
	}

	projections, err := h.svc.ProjectedFeedNeeds(c.Request.Context(), horizon)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, projections)
}
