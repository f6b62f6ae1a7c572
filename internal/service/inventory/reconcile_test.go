package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

func TestReconcileWholeUnits(t *testing.T) {
	tests := []struct {
		name  string
		batch models.DressedBatch
		want  int
	}{
		{
			name:  "explicit actual unit count wins",
			batch: models.DressedBatch{CurrentCount: 8, ActualUnitCount: intPtr(5), PartsCount: map[string]int{"wings": 8}},
			want:  5,
		},
		{
			name:  "no parts falls back to current count",
			batch: models.DressedBatch{CurrentCount: 12},
			want:  12,
		},
		{
			name:  "current count disagreeing with parts total is authoritative",
			batch: models.DressedBatch{CurrentCount: 10, PartsCount: map[string]int{"wings": 6, "thighs": 6}},
			want:  10,
		},
		{
			name:  "legacy parts-only record limited by smallest part",
			batch: models.DressedBatch{CurrentCount: 12, PartsCount: map[string]int{"wings": 8, "thighs": 4}},
			want:  4,
		},
		{
			name:  "zero parts skipped when finding the limiting part",
			batch: models.DressedBatch{CurrentCount: 9, PartsCount: map[string]int{"wings": 9, "necks": 0}},
			want:  9,
		},
		{
			name:  "all parts zero means nothing sellable",
			batch: models.DressedBatch{CurrentCount: 0, PartsCount: map[string]int{"wings": 0}},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconcileWholeUnits(tt.batch))
		})
	}
}
