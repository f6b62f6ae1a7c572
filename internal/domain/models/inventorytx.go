package models

import "time"

// InventoryTxType labels the cause of a batch quantity change.
type InventoryTxType string

const (
	InvTxSale       InventoryTxType = "sale"
	InvTxReturn     InventoryTxType = "return"
	InvTxMortality  InventoryTxType = "mortality"
	InvTxProcessing InventoryTxType = "processing"
	InvTxCorrection InventoryTxType = "correction"
	InvTxTransfer   InventoryTxType = "transfer"
)

// InventoryTransaction is one append-only audit row for a batch quantity
// change. Every order- or consumption-caused mutation writes exactly one.
// QuantityChanged is signed and carries bird counts or feed kilograms
// depending on InventoryType.
type InventoryTransaction struct {
	ID              string          `bson:"_id" json:"id"`
	BatchID         string          `bson:"batch_id" json:"batch_id"`
	InventoryType   BatchType       `bson:"inventory_type" json:"inventory_type"`
	PartType        string          `bson:"part_type,omitempty" json:"part_type,omitempty"`
	Type            InventoryTxType `bson:"type" json:"type"`
	QuantityChanged float64         `bson:"quantity_changed" json:"quantity_changed"`
	Reason          string          `bson:"reason" json:"reason"`
	OrderID         string          `bson:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
}
