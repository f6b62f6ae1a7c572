package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/server/handlers"
)

// Handlers groups the per-domain HTTP adapters the router mounts.
type Handlers struct {
	Ledger    *handlers.LedgerHandler
	Orders    *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
	Feed      *handlers.FeedHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	api.GET("/balance", h.Ledger.Balance)
	api.POST("/balance/clear", h.Ledger.ClearBalance)
	api.GET("/transactions", h.Ledger.List)
	api.POST("/transactions", h.Ledger.Record)
	api.DELETE("/transactions/:id", h.Ledger.Reverse)

	api.POST("/orders", h.Orders.Create)
	api.GET("/orders", h.Orders.List)
	api.GET("/orders/:id", h.Orders.Get)
	api.PUT("/orders/:id", h.Orders.Update)
	api.DELETE("/orders/:id", h.Orders.Delete)

	api.POST("/live-batches", h.Inventory.CreateLiveBatch)
	api.GET("/live-batches", h.Inventory.ListLiveBatches)
	api.GET("/live-batches/:id", h.Inventory.GetLiveBatch)
	api.PUT("/live-batches/:id", h.Inventory.UpdateLiveBatch)
	api.DELETE("/live-batches/:id", h.Inventory.DeleteLiveBatch)
	api.POST("/live-batches/:id/mortality", h.Inventory.RecordMortality)
	api.POST("/live-batches/:id/weight-samples", h.Inventory.RecordWeightSample)

	api.POST("/dressed-batches", h.Inventory.CreateDressedBatch)
	api.GET("/dressed-batches", h.Inventory.ListDressedBatches)
	api.GET("/dressed-batches/:id", h.Inventory.GetDressedBatch)
	api.PUT("/dressed-batches/:id", h.Inventory.UpdateDressedBatch)
	api.DELETE("/dressed-batches/:id", h.Inventory.DeleteDressedBatch)

	api.POST("/stock", h.Inventory.CreateStockItem)
	api.GET("/stock", h.Inventory.ListStock)
	api.GET("/stock/:id", h.Inventory.GetStockItem)
	api.PUT("/stock/:id", h.Inventory.UpdateStockItem)
	api.DELETE("/stock/:id", h.Inventory.DeleteStockItem)

	api.GET("/inventory-transactions", h.Inventory.ListInventoryTransactions)

	api.POST("/relationships", h.Inventory.CreateRelationship)
	api.GET("/relationships", h.Inventory.ListRelationships)
	api.PUT("/relationships/:id", h.Inventory.UpdateRelationship)
	api.DELETE("/relationships/:id", h.Inventory.DeleteRelationship)

	api.POST("/feed-items", h.Feed.CreateItem)
	api.GET("/feed-items", h.Feed.ListItems)
	api.GET("/feed-items/:id", h.Feed.GetItem)
	api.PUT("/feed-items/:id", h.Feed.UpdateItem)
	api.DELETE("/feed-items/:id", h.Feed.DeleteItem)

	api.POST("/feed-consumption", h.Feed.RecordConsumption)
	api.GET("/feed-consumption", h.Feed.ListConsumption)
	api.DELETE("/feed-consumption/:id", h.Feed.DeleteConsumption)

	api.POST("/feed-assignments", h.Feed.CreateAssignment)
	api.GET("/feed-assignments", h.Feed.ListAssignments)
	api.DELETE("/feed-assignments/:id", h.Feed.DeleteAssignment)

	api.GET("/feed-alerts", h.Feed.Alerts)
	api.GET("/feed-projections", h.Feed.Projections)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
