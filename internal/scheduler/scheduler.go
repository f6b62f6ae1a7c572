// Package scheduler runs the background jobs: replaying queued fallback
// writes, scanning for low feed, and mirroring the ledger to a sheet.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/config"
	"github.com/mamadbah2/farmledger/internal/domain/models"
	"github.com/mamadbah2/farmledger/internal/repository/sheets"
	"github.com/mamadbah2/farmledger/pkg/clients/whatsapp"
)

// Replayer drains the fallback pending-write queue.
type Replayer interface {
	ReplayPending(ctx context.Context) (int, error)
}

// FeedAlerter produces the current low-feed alerts.
type FeedAlerter interface {
	LowFeedAlerts(ctx context.Context) ([]models.LowFeedAlert, error)
}

// LedgerReader lists transactions for the sheet mirror.
type LedgerReader interface {
	ListTransactions(ctx context.Context, opts models.ListOptions) ([]models.Transaction, error)
}

// Scheduler manages scheduled tasks. The notifier and mirror are optional;
// their jobs are skipped when nil.
type Scheduler struct {
	cron     *cron.Cron
	replayer Replayer
	alerter  FeedAlerter
	ledger   LedgerReader
	notifier whatsapp.Notifier
	alertTo  string
	mirror   *sheets.LedgerMirror
	cfg      config.JobsConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.JobsConfig, replayer Replayer, alerter FeedAlerter, ledger LedgerReader,
	notifier whatsapp.Notifier, alertTo string, mirror *sheets.LedgerMirror, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(loc))
	} else {
		logger.Warn("unknown timezone, cron runs in local time", zap.String("timezone", cfg.Timezone))
	}

	return &Scheduler{
		cron:     cron.New(opts...),
		replayer: replayer,
		alerter:  alerter,
		ledger:   ledger,
		notifier: notifier,
		alertTo:  alertTo,
		mirror:   mirror,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.ReplaySchedule, s.replayPendingWrites); err != nil {
		s.logger.Error("failed to schedule fallback replay", zap.Error(err))
	}
	if s.notifier != nil {
		if _, err := s.cron.AddFunc(s.cfg.FeedAlertSchedule, s.sendLowFeedAlerts); err != nil {
			s.logger.Error("failed to schedule feed alert scan", zap.Error(err))
		}
	}
	if s.mirror != nil {
		if _, err := s.cron.AddFunc(s.cfg.MirrorSchedule, s.mirrorLedger); err != nil {
			s.logger.Error("failed to schedule ledger mirror", zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) replayPendingWrites() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	replayed, err := s.replayer.ReplayPending(ctx)
	if err != nil {
		s.logger.Warn("fallback replay incomplete",
			zap.Int("replayed", replayed), zap.Error(err))
		return
	}
	if replayed > 0 {
		s.logger.Info("fallback queue drained", zap.Int("replayed", replayed))
	}
}

func (s *Scheduler) sendLowFeedAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	alerts, err := s.alerter.LowFeedAlerts(ctx)
	if err != nil {
		s.logger.Error("low feed scan failed", zap.Error(err))
		return
	}
	if len(alerts) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("Low feed alert:\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "- [%s] batch %s: %.1fkg of %.1fkg left (%s)\n",
			strings.ToUpper(string(a.Severity)), a.BatchID, a.RemainingKg, a.AssignedKg, a.FeedType)
	}

	if err := s.notifier.SendText(ctx, s.alertTo, b.String()); err != nil {
		s.logger.Error("failed to send low feed alert", zap.Error(err))
		return
	}
	s.logger.Info("low feed alert sent", zap.Int("alerts", len(alerts)))
}

func (s *Scheduler) mirrorLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	txs, err := s.ledger.ListTransactions(ctx, models.ListOptions{SortBy: "date"})
	if err != nil {
		s.logger.Error("failed to list transactions for mirror", zap.Error(err))
		return
	}

	if _, err := s.mirror.MirrorTransactions(ctx, txs); err != nil {
		s.logger.Error("ledger mirror failed", zap.Error(err))
	}
}
