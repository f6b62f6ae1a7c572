package models

import "time"

// CalculationMode selects how an order total is computed.
type CalculationMode string

const (
	// ModeCountSizeCost: count birds × size (kg) × price per kg.
	ModeCountSizeCost CalculationMode = "count_size_cost"
	// ModeCountCost: count birds × price per bird.
	ModeCountCost CalculationMode = "count_cost"
	// ModeSizeCost: size (kg) × price per kg, no unit semantics.
	ModeSizeCost CalculationMode = "size_cost"
)

// OrderStatus is user-set; Balance is always derived.
type OrderStatus string

const (
	OrderPaid    OrderStatus = "paid"
	OrderPartial OrderStatus = "partial"
	OrderPending OrderStatus = "pending"
)

// Order is one chicken sale, optionally sourced from a live or dressed batch.
// Stored in the legacy "chickens" collection.
type Order struct {
	ID            string          `bson:"_id" json:"id"`
	Customer      string          `bson:"customer" json:"customer"`
	InventoryType BatchType       `bson:"inventory_type,omitempty" json:"inventory_type,omitempty"`
	BatchID       string          `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	PartType      string          `bson:"part_type,omitempty" json:"part_type,omitempty"`
	Mode          CalculationMode `bson:"calculation_mode" json:"calculation_mode"`
	Count         int             `bson:"count" json:"count"`
	SizeKg        float64         `bson:"size_kg" json:"size_kg"`
	Price         Money           `bson:"price" json:"price"`
	AmountPaid    Money           `bson:"amount_paid" json:"amount_paid"`
	Balance       Money           `bson:"balance" json:"balance"`
	Status        OrderStatus     `bson:"status" json:"status"`
	OrderDate     time.Time       `bson:"order_date" json:"order_date"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// Total computes the order total under its calculation mode.
func (o Order) Total() Money {
	switch o.Mode {
	case ModeCountSizeCost:
		return o.Price.MulFloat(o.SizeKg).MulInt(o.Count)
	case ModeCountCost:
		return o.Price.MulInt(o.Count)
	case ModeSizeCost:
		return o.Price.MulFloat(o.SizeKg)
	default:
		return Money{}
	}
}

// DeductsInventory reports whether the order's mode carries unit semantics.
// Size-only sales have no countable units to deduct.
func (o Order) DeductsInventory() bool {
	return o.BatchID != "" && o.Mode != ModeSizeCost
}

// Validate checks the required fields for the order's calculation mode.
// The field not applicable to a mode may be coerced to 1 by Normalize.
func (o Order) Validate() error {
	switch o.Mode {
	case ModeCountSizeCost:
		if o.Count <= 0 {
			return Validationf("count", "must be positive for mode %s", o.Mode)
		}
		if o.SizeKg <= 0 {
			return Validationf("size_kg", "must be positive for mode %s", o.Mode)
		}
	case ModeCountCost:
		if o.Count <= 0 {
			return Validationf("count", "must be positive for mode %s", o.Mode)
		}
	case ModeSizeCost:
		if o.SizeKg <= 0 {
			return Validationf("size_kg", "must be positive for mode %s", o.Mode)
		}
	default:
		return Validationf("calculation_mode", "unknown mode %q", string(o.Mode))
	}
	if o.Price.IsNegative() {
		return Validationf("price", "must not be negative")
	}
	if o.AmountPaid.IsNegative() {
		return Validationf("amount_paid", "must not be negative")
	}
	if o.BatchID != "" && o.InventoryType != "" &&
		o.InventoryType != BatchTypeLive && o.InventoryType != BatchTypeDressed {
		return Validationf("inventory_type", "orders can only source %s or %s", BatchTypeLive, BatchTypeDressed)
	}
	return nil
}

// Normalize coerces the size/count field that the mode does not use to 1 and
// recomputes the derived balance.
func (o *Order) Normalize() {
	switch o.Mode {
	case ModeCountCost:
		if o.SizeKg == 0 {
			o.SizeKg = 1
		}
	case ModeSizeCost:
		if o.Count == 0 {
			o.Count = 1
		}
	}
	o.Balance = o.Total().Minus(o.AmountPaid)
}
