package models

import "time"

// StockItem is a general farm supply (crates, vaccines, bedding) tracked in
// the legacy "stock" collection. Purchases with a cost emit a stock_expense
// ledger entry.
type StockItem struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Category  string    `bson:"category,omitempty" json:"category,omitempty"`
	Quantity  float64   `bson:"quantity" json:"quantity"`
	Unit      string    `bson:"unit,omitempty" json:"unit,omitempty"`
	UnitPrice Money     `bson:"unit_price" json:"unit_price"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Validate checks stock item invariants prior to a write.
func (s StockItem) Validate() error {
	if s.Name == "" {
		return Validationf("name", "is required")
	}
	if s.Quantity < 0 {
		return Validationf("quantity", "must not be negative")
	}
	if s.UnitPrice.IsNegative() {
		return Validationf("unit_price", "must not be negative")
	}
	return nil
}

// AuditLog mirrors one before/after record handed to the audit collaborator.
type AuditLog struct {
	ID       string    `bson:"_id" json:"id"`
	Action   string    `bson:"action" json:"action"`
	Table    string    `bson:"table" json:"table"`
	RecordID string    `bson:"record_id" json:"record_id"`
	OldValue any       `bson:"old_value,omitempty" json:"old_value,omitempty"`
	NewValue any       `bson:"new_value,omitempty" json:"new_value,omitempty"`
	LoggedAt time.Time `bson:"logged_at" json:"logged_at"`
}
