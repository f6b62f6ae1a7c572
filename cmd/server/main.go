package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/config"
	"github.com/mamadbah2/farmledger/internal/repository/cache"
	"github.com/mamadbah2/farmledger/internal/repository/fallback"
	"github.com/mamadbah2/farmledger/internal/repository/mongodb"
	"github.com/mamadbah2/farmledger/internal/repository/sheets"
	"github.com/mamadbah2/farmledger/internal/repository/store"
	"github.com/mamadbah2/farmledger/internal/scheduler"
	"github.com/mamadbah2/farmledger/internal/server/handlers"
	"github.com/mamadbah2/farmledger/internal/server/router"
	auditsvc "github.com/mamadbah2/farmledger/internal/service/audit"
	"github.com/mamadbah2/farmledger/internal/service/inventory"
	ledgersvc "github.com/mamadbah2/farmledger/internal/service/ledger"
	"github.com/mamadbah2/farmledger/internal/service/orders"
	auditclient "github.com/mamadbah2/farmledger/pkg/clients/audit"
	whatsappclient "github.com/mamadbah2/farmledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	remote, err := mongodb.New(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := remote.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	local, err := fallback.New(cfg.Fallback.Path, baseLogger.Named("repo.fallback"))
	if err != nil {
		baseLogger.Fatal("failed to init fallback store", zap.Error(err))
	}
	defer func() { _ = local.Close() }()

	readCache := cache.New(cfg.Cache.DefaultTTL, nil, baseLogger.Named("repo.cache"))
	composite := store.New(remote, local, readCache, baseLogger.Named("repo.store"))

	auditSinks := []auditsvc.Sink{auditsvc.NewStoreSink(composite)}
	if cfg.Audit.WebhookURL != "" {
		auditSinks = append(auditSinks, auditclient.NewWebhookClient(cfg.Audit.WebhookURL, cfg.Audit.WebhookToken))
		baseLogger.Info("audit webhook mirror enabled")
	}
	auditLog := auditsvc.New(baseLogger.Named("svc.audit"), auditSinks...)

	ledgerSvc := ledgersvc.NewService(composite, auditLog, baseLogger.Named("svc.ledger"))
	inventorySvc := inventory.NewService(composite, ledgerSvc, auditLog, baseLogger.Named("svc.inventory"))
	orderSvc := orders.NewService(composite, ledgerSvc, inventorySvc, composite.Local(), auditLog, baseLogger.Named("svc.orders"))

	engine := router.New(router.Handlers{
		Ledger:    handlers.NewLedgerHandler(ledgerSvc, baseLogger.Named("handlers.ledger")),
		Orders:    handlers.NewOrderHandler(orderSvc, baseLogger.Named("handlers.orders")),
		Inventory: handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Feed:      handlers.NewFeedHandler(inventorySvc, baseLogger.Named("handlers.feed")),
	}, baseLogger.Named("router"))

	var notifier whatsappclient.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp alerts enabled")
	} else {
		baseLogger.Info("whatsapp alerts disabled, credentials missing")
	}

	var mirror *sheets.LedgerMirror
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror = sheets.NewLedgerMirror(sheetsRepo, cfg.Sheets.SheetName, baseLogger.Named("repo.sheets.mirror"))
		baseLogger.Info("ledger sheet mirror enabled")
	} else {
		baseLogger.Info("ledger sheet mirror disabled, credentials missing")
	}

	sched := scheduler.NewScheduler(cfg.Jobs, composite, inventorySvc, ledgerSvc,
		notifier, cfg.WhatsApp.AlertGroupID, mirror, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
