package models

import "time"

// FeedStatus is the availability state of a feed inventory item.
type FeedStatus string

const (
	FeedActive   FeedStatus = "active"
	FeedConsumed FeedStatus = "consumed"
)

// FeedInventory is one purchased lot of feed.
type FeedInventory struct {
	ID           string     `bson:"_id" json:"id"`
	FeedType     string     `bson:"feed_type" json:"feed_type"`
	Brand        string     `bson:"brand,omitempty" json:"brand,omitempty"`
	QuantityKg   float64    `bson:"quantity_kg" json:"quantity_kg"`
	CostPerKg    Money      `bson:"cost_per_kg" json:"cost_per_kg"`
	Status       FeedStatus `bson:"status" json:"status"`
	PurchaseDate time.Time  `bson:"purchase_date" json:"purchase_date"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// Validate checks feed item invariants prior to a write.
func (f FeedInventory) Validate() error {
	if f.FeedType == "" {
		return Validationf("feed_type", "is required")
	}
	if f.QuantityKg < 0 {
		return Validationf("quantity_kg", "must not be negative")
	}
	return nil
}

// FeedConsumption records feed taken from one inventory item for one batch.
// Creating it decrements the item's quantity; deleting it restores it.
type FeedConsumption struct {
	ID                 string    `bson:"_id" json:"id"`
	FeedID             string    `bson:"feed_id" json:"feed_id"`
	BatchID            string    `bson:"batch_id" json:"batch_id"`
	QuantityConsumedKg float64   `bson:"quantity_consumed_kg" json:"quantity_consumed_kg"`
	Date               time.Time `bson:"date" json:"date"`
	Notes              string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// Validate checks consumption invariants prior to a write.
func (c FeedConsumption) Validate() error {
	if c.FeedID == "" {
		return Validationf("feed_id", "is required")
	}
	if c.BatchID == "" {
		return Validationf("batch_id", "is required")
	}
	if c.QuantityConsumedKg <= 0 {
		return Validationf("quantity_consumed_kg", "must be positive")
	}
	return nil
}

// BatchAssignment links a feed inventory item to a live batch with the
// quantity earmarked for it. Used by the low-feed projections.
type BatchAssignment struct {
	ID                 string    `bson:"_id" json:"id"`
	FeedID             string    `bson:"feed_id" json:"feed_id"`
	BatchID            string    `bson:"batch_id" json:"batch_id"`
	AssignedQuantityKg float64   `bson:"assigned_quantity_kg" json:"assigned_quantity_kg"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// AlertSeverity grades a low-feed alert.
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// LowFeedAlert is a read-side projection: remaining assigned feed for a batch
// dropped under the warning (20%) or critical (10%) threshold.
type LowFeedAlert struct {
	FeedID      string        `json:"feed_id"`
	FeedType    string        `json:"feed_type"`
	BatchID     string        `json:"batch_id"`
	AssignedKg  float64       `json:"assigned_kg"`
	RemainingKg float64       `json:"remaining_kg"`
	Severity    AlertSeverity `json:"severity"`
}

// FeedProjection estimates days of feed left for one batch given its
// consumption history.
type FeedProjection struct {
	BatchID          string  `json:"batch_id"`
	RemainingKg      float64 `json:"remaining_kg"`
	AvgDailyKg       float64 `json:"avg_daily_kg"`
	DaysLeft         float64 `json:"days_left"`
	ProjectedNeedKg  float64 `json:"projected_need_kg"`
	HorizonDays      int     `json:"horizon_days"`
}
