// Package audit records before/after state for every engine mutation. The
// collaborator is best-effort by contract: a failed audit write never rolls
// back the mutation it describes.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// Logger is what the engines call after every successful mutation.
type Logger interface {
	LogAction(ctx context.Context, action, table, recordID string, oldValue, newValue any)
}

// Sink stores one audit entry somewhere.
type Sink interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

// Service fans audit entries out to its sinks.
type Service struct {
	sinks  []Sink
	logger *zap.Logger
}

// New wires an audit service over the provided sinks.
func New(logger *zap.Logger, sinks ...Sink) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sinks: sinks, logger: logger}
}

// LogAction builds and dispatches one audit entry. Sink failures are logged
// and swallowed.
func (s *Service) LogAction(ctx context.Context, action, table, recordID string, oldValue, newValue any) {
	entry := models.AuditLog{
		ID:       uuid.NewString(),
		Action:   action,
		Table:    table,
		RecordID: recordID,
		OldValue: oldValue,
		NewValue: newValue,
		LoggedAt: time.Now().UTC(),
	}
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, entry); err != nil {
			s.logger.Warn("audit sink failed",
				zap.String("action", action),
				zap.String("table", table),
				zap.String("record_id", recordID),
				zap.Error(err))
		}
	}
}

// StoreSink writes audit entries to the audit_logs collection.
type StoreSink struct {
	store interface {
		InsertAuditLog(ctx context.Context, a models.AuditLog) error
	}
}

// NewStoreSink builds the collection-backed sink.
func NewStoreSink(store interface {
	InsertAuditLog(ctx context.Context, a models.AuditLog) error
}) *StoreSink {
	return &StoreSink{store: store}
}

// Record implements Sink.
func (s *StoreSink) Record(ctx context.Context, entry models.AuditLog) error {
	return s.store.InsertAuditLog(ctx, entry)
}

// Nop is the disabled audit logger.
type Nop struct{}

// LogAction implements Logger and does nothing.
func (Nop) LogAction(context.Context, string, string, string, any, any) {}
