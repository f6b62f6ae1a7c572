package models

import "time"

// BatchType identifies which inventory family a batch belongs to. The values
// double as remote collection discriminators in relationships and orders.
type BatchType string

const (
	BatchTypeLive    BatchType = "live_chickens"
	BatchTypeDressed BatchType = "dressed_chickens"
	BatchTypeFeed    BatchType = "feed_inventory"
)

// ValidBatchType reports whether t names a known batch family.
func ValidBatchType(t BatchType) bool {
	return t == BatchTypeLive || t == BatchTypeDressed || t == BatchTypeFeed
}

// LifecycleStage is the ordered growth stage of a live batch.
type LifecycleStage string

const (
	StageChick      LifecycleStage = "chick"
	StageGrowing    LifecycleStage = "growing"
	StageFinishing  LifecycleStage = "finishing"
	StageReady      LifecycleStage = "ready"
	StageProcessed  LifecycleStage = "processed"
	StageClosedOut  LifecycleStage = "closed_out"
)

var stageOrder = map[LifecycleStage]int{
	StageChick:     0,
	StageGrowing:   1,
	StageFinishing: 2,
	StageReady:     3,
	StageProcessed: 4,
	StageClosedOut: 5,
}

// StageRank returns the position of s in the lifecycle, or -1 when unknown.
func StageRank(s LifecycleStage) int {
	if r, ok := stageOrder[s]; ok {
		return r
	}
	return -1
}

// WeightSample is one average-weight measurement for a live batch. Weight
// history is best-effort data: losing a sample never blocks an operation.
type WeightSample struct {
	Date        time.Time `bson:"date" json:"date"`
	AvgWeightKg float64   `bson:"avg_weight_kg" json:"avg_weight_kg"`
	SampleSize  int       `bson:"sample_size" json:"sample_size"`
}

// LiveBatch is a lot of live birds. CurrentCount only decreases through
// sales, mortality and processing, except explicit corrections.
type LiveBatch struct {
	ID            string         `bson:"_id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Breed         string         `bson:"breed,omitempty" json:"breed,omitempty"`
	InitialCount  int            `bson:"initial_count" json:"initial_count"`
	CurrentCount  int            `bson:"current_count" json:"current_count"`
	Stage         LifecycleStage `bson:"lifecycle_stage" json:"lifecycle_stage"`
	Mortality     int            `bson:"mortality" json:"mortality"`
	WeightSamples []WeightSample `bson:"weight_samples,omitempty" json:"weight_samples,omitempty"`
	ArrivalDate   time.Time      `bson:"arrival_date" json:"arrival_date"`
	UnitCost      Money          `bson:"unit_cost" json:"unit_cost"`
	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updated_at"`
}

// Validate checks live batch invariants prior to a write.
func (b LiveBatch) Validate() error {
	if b.Name == "" {
		return Validationf("name", "is required")
	}
	if b.InitialCount <= 0 {
		return Validationf("initial_count", "must be positive")
	}
	if b.CurrentCount < 0 || b.CurrentCount > b.InitialCount {
		return Validationf("current_count", "must be within [0, %d]", b.InitialCount)
	}
	if b.Stage != "" && StageRank(b.Stage) < 0 {
		return Validationf("lifecycle_stage", "unknown stage %q", string(b.Stage))
	}
	return nil
}

// DressedBatch is a lot of processed birds, counted as whole units with an
// optional breakdown per part type. Legacy records may carry only PartsCount.
type DressedBatch struct {
	ID              string         `bson:"_id" json:"id"`
	SourceBatchID   string         `bson:"source_batch_id,omitempty" json:"source_batch_id,omitempty"`
	ProcessingDate  time.Time      `bson:"processing_date" json:"processing_date"`
	CurrentCount    int            `bson:"current_count" json:"current_count"`
	PartsCount      map[string]int `bson:"parts_count,omitempty" json:"parts_count,omitempty"`
	ActualUnitCount *int           `bson:"actual_unit_count,omitempty" json:"actual_unit_count,omitempty"`
	AvgWeightKg     float64        `bson:"avg_weight_kg,omitempty" json:"avg_weight_kg,omitempty"`
	StorageLocation string         `bson:"storage_location,omitempty" json:"storage_location,omitempty"`
	CreatedAt       time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updated_at"`
}

// Validate checks dressed batch invariants prior to a write.
func (b DressedBatch) Validate() error {
	if b.CurrentCount < 0 {
		return Validationf("current_count", "must not be negative")
	}
	for part, n := range b.PartsCount {
		if n < 0 {
			return Validationf("parts_count."+part, "must not be negative")
		}
	}
	return nil
}

// PartsTotal sums all part counts.
func (b DressedBatch) PartsTotal() int {
	var total int
	for _, n := range b.PartsCount {
		total += n
	}
	return total
}
