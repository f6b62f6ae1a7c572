package models

import "time"

// RelationshipType labels a directed provenance edge between two batches.
type RelationshipType string

const (
	RelFedTo                RelationshipType = "fed_to"
	RelProcessedFrom        RelationshipType = "processed_from"
	RelSoldTo               RelationshipType = "sold_to"
	RelTransferredTo        RelationshipType = "transferred_to"
	RelSplitFrom            RelationshipType = "split_from"
	RelPartialProcessedFrom RelationshipType = "partial_processed_from"
)

// ValidRelationshipType reports whether t is a known edge label.
func ValidRelationshipType(t RelationshipType) bool {
	switch t {
	case RelFedTo, RelProcessedFrom, RelSoldTo, RelTransferredTo,
		RelSplitFrom, RelPartialProcessedFrom:
		return true
	}
	return false
}

// BatchRelationship is a typed, directed edge between two batches. Edges are
// soft-deleted: IsActive flips and DeletedAt is stamped, the row stays.
type BatchRelationship struct {
	ID              string           `bson:"_id" json:"id"`
	SourceBatchID   string           `bson:"source_batch_id" json:"source_batch_id"`
	SourceBatchType BatchType        `bson:"source_batch_type" json:"source_batch_type"`
	TargetBatchID   string           `bson:"target_batch_id" json:"target_batch_id"`
	TargetBatchType BatchType        `bson:"target_batch_type" json:"target_batch_type"`
	Relationship    RelationshipType `bson:"relationship_type" json:"relationship_type"`
	Quantity        float64          `bson:"quantity" json:"quantity"`
	Notes           string           `bson:"notes,omitempty" json:"notes,omitempty"`
	IsActive        bool             `bson:"is_active" json:"is_active"`
	DeletedAt       *time.Time       `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
}

// Validate rejects missing required fields and invalid enum values before
// any write happens.
func (r BatchRelationship) Validate() error {
	if r.SourceBatchID == "" {
		return Validationf("source_batch_id", "is required")
	}
	if r.TargetBatchID == "" {
		return Validationf("target_batch_id", "is required")
	}
	if !ValidBatchType(r.SourceBatchType) {
		return Validationf("source_batch_type", "unknown type %q", string(r.SourceBatchType))
	}
	if !ValidBatchType(r.TargetBatchType) {
		return Validationf("target_batch_type", "unknown type %q", string(r.TargetBatchType))
	}
	if !ValidRelationshipType(r.Relationship) {
		return Validationf("relationship_type", "unknown type %q", string(r.Relationship))
	}
	if r.Quantity < 0 {
		return Validationf("quantity", "must not be negative")
	}
	return nil
}
