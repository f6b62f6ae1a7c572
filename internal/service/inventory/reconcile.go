package inventory

import "github.com/mamadbah2/farmledger/internal/domain/models"

// ReconcileWholeUnits derives the sellable whole-unit count of a dressed
// batch from heterogeneous legacy fields.
//
// Precondition for the heuristic branch: the batch has no explicit actual
// unit count AND its current_count equals the sum of all part counts, which
// marks a legacy record where only parts totals were stored. In that case the
// limiting part determines how many whole units remain, so the minimum of
// the non-zero part counts is returned. Otherwise current_count is
// authoritative.
func ReconcileWholeUnits(b models.DressedBatch) int {
	if b.ActualUnitCount != nil {
		return *b.ActualUnitCount
	}
	if len(b.PartsCount) == 0 || b.CurrentCount != b.PartsTotal() {
		return b.CurrentCount
	}

	minimum := -1
	for _, n := range b.PartsCount {
		if n == 0 {
			continue
		}
		if minimum < 0 || n < minimum {
			minimum = n
		}
	}
	if minimum < 0 {
		return 0
	}
	return minimum
}
