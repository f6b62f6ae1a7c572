// Package sheets mirrors the ledger history into a Google Sheet so the
// books stay readable outside the application.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmledger/internal/config"
	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// LedgerMirror appends ledger transactions to one tab of the spreadsheet,
// skipping rows that are already there.
type LedgerMirror struct {
	repo      Repository
	sheetName string
	logger    *zap.Logger
}

// NewLedgerMirror wires a mirror over an existing sheets repository.
func NewLedgerMirror(repo Repository, sheetName string, logger *zap.Logger) *LedgerMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerMirror{repo: repo, sheetName: sheetName, logger: logger}
}

// MirrorTransactions appends every transaction whose id is not yet present
// in the sheet. The first column holds the transaction id, which is what the
// dedup check reads back.
func (m *LedgerMirror) MirrorTransactions(ctx context.Context, txs []models.Transaction) (int, error) {
	existing, err := m.existingIDs(ctx)
	if err != nil {
		return 0, err
	}

	appended := 0
	for _, tx := range txs {
		if existing[tx.ID] {
			continue
		}
		row := []interface{}{
			tx.ID,
			tx.Date.Format("2006-01-02 15:04:05"),
			string(tx.Type),
			tx.Amount.String(),
			tx.Description,
		}
		if err := m.repo.WriteRow(ctx, m.sheetName+"!A:E", row); err != nil {
			return appended, fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
		}
		appended++
	}

	if appended > 0 {
		m.logger.Info("ledger mirrored to sheet", zap.Int("rows", appended))
	}
	return appended, nil
}

func (m *LedgerMirror) existingIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := m.repo.ReadRange(ctx, m.sheetName+"!A:A")
	if err != nil {
		return nil, fmt.Errorf("read mirrored ids: %w", err)
	}
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok {
			ids[id] = true
		}
	}
	return ids, nil
}
