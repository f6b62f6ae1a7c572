// Package handlers adapts the engines to the HTTP surface consumed by the
// back-office UI.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// respondError maps the engine error taxonomy onto HTTP statuses. Partial
// failures surface as 500 with the completed steps so the caller can retry.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var partial *models.PartialFailureError
	if errors.As(err, &partial) {
		logger.Error("request partially completed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     partial.Error(),
			"completed": partial.Completed,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientInventory):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrRemoteStore):
		logger.Error("remote store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// reserved query params that never become filters.
var listParams = map[string]bool{
	"sort_by":   true,
	"sort_desc": true,
	"offset":    true,
	"limit":     true,
	"view":      true,
}

// parseListOptions builds ListOptions from the query string. Any query
// parameter that is not a pagination/sort/view control is treated as a
// verbatim field filter.
func parseListOptions(c *gin.Context) models.ListOptions {
	opts := models.ListOptions{
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("sort_desc") == "true",
		View:     models.View(c.Query("view")),
	}
	if v, err := strconv.ParseInt(c.Query("offset"), 10, 64); err == nil {
		opts.Offset = v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		opts.Limit = v
	}

	for key, values := range c.Request.URL.Query() {
		if listParams[key] || len(values) == 0 {
			continue
		}
		if opts.Filter == nil {
			opts.Filter = map[string]any{}
		}
		opts.Filter[key] = values[0]
	}

	opts.Normalize()
	return opts
}
