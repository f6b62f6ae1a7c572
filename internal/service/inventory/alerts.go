package inventory

import (
	"context"
	"time"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

const (
	lowFeedWarningRatio  = 0.20
	lowFeedCriticalRatio = 0.10
)

// LowFeedAlerts scans every feed assignment and reports the ones whose
// remaining quantity fell under the warning or critical ratio of what was
// assigned. Remaining is assigned minus the consumption logged against the
// same feed item and batch.
func (s *Service) LowFeedAlerts(ctx context.Context) ([]models.LowFeedAlert, error) {
	assignments, err := s.store.ListFeedAssignments(ctx, models.ListOptions{})
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	consumptions, err := s.store.ListFeedConsumption(ctx, models.ListOptions{})
	if err != nil {
		return nil, err
	}
	consumedBy := make(map[string]float64, len(consumptions))
	for _, c := range consumptions {
		consumedBy[c.FeedID+"|"+c.BatchID] += c.QuantityConsumedKg
	}

	feedTypes := map[string]string{}
	var alerts []models.LowFeedAlert
	for _, a := range assignments {
		if a.AssignedQuantityKg <= 0 {
			continue
		}
		remaining := a.AssignedQuantityKg - consumedBy[a.FeedID+"|"+a.BatchID]
		if remaining < 0 {
			remaining = 0
		}
		ratio := remaining / a.AssignedQuantityKg
		if ratio >= lowFeedWarningRatio {
			continue
		}

		feedType, ok := feedTypes[a.FeedID]
		if !ok {
			item, err := s.store.GetFeedItem(ctx, a.FeedID)
			if err == nil {
				feedType = item.FeedType
			}
			feedTypes[a.FeedID] = feedType
		}

		severity := models.AlertWarning
		if ratio < lowFeedCriticalRatio {
			severity = models.AlertCritical
		}
		alerts = append(alerts, models.LowFeedAlert{
			FeedID:      a.FeedID,
			FeedType:    feedType,
			BatchID:     a.BatchID,
			AssignedKg:  a.AssignedQuantityKg,
			RemainingKg: remaining,
			Severity:    severity,
		})
	}
	return alerts, nil
}

// ProjectedFeedNeeds estimates, per batch with consumption history, how many
// days of assigned feed remain and how much the batch will need over the
// horizon. The daily rate is the batch's total logged consumption averaged
// over the span of its consumption dates (at least one day).
func (s *Service) ProjectedFeedNeeds(ctx context.Context, horizonDays int) ([]models.FeedProjection, error) {
	if horizonDays <= 0 {
		return nil, models.Validationf("horizon_days", "must be positive")
	}

	consumptions, err := s.store.ListFeedConsumption(ctx, models.ListOptions{})
	if err != nil {
		return nil, err
	}
	if len(consumptions) == 0 {
		return nil, nil
	}

	type history struct {
		totalKg     float64
		first, last time.Time
	}
	byBatch := map[string]*history{}
	var order []string
	for _, c := range consumptions {
		h, ok := byBatch[c.BatchID]
		if !ok {
			h = &history{first: c.Date, last: c.Date}
			byBatch[c.BatchID] = h
			order = append(order, c.BatchID)
		}
		h.totalKg += c.QuantityConsumedKg
		if c.Date.Before(h.first) {
			h.first = c.Date
		}
		if c.Date.After(h.last) {
			h.last = c.Date
		}
	}

	assignments, err := s.store.ListFeedAssignments(ctx, models.ListOptions{})
	if err != nil {
		return nil, err
	}
	assignedBy := map[string]float64{}
	for _, a := range assignments {
		assignedBy[a.BatchID] += a.AssignedQuantityKg
	}
	consumedBy := map[string]float64{}
	for _, c := range consumptions {
		consumedBy[c.BatchID] += c.QuantityConsumedKg
	}

	projections := make([]models.FeedProjection, 0, len(order))
	for _, batchID := range order {
		h := byBatch[batchID]
		days := h.last.Sub(h.first).Hours() / 24
		if days < 1 {
			days = 1
		}
		avgDaily := h.totalKg / days

		remaining := assignedBy[batchID] - consumedBy[batchID]
		if remaining < 0 {
			remaining = 0
		}
		daysLeft := 0.0
		if avgDaily > 0 {
			daysLeft = remaining / avgDaily
		}
		projections = append(projections, models.FeedProjection{
			BatchID:         batchID,
			RemainingKg:     remaining,
			AvgDailyKg:      avgDaily,
			DaysLeft:        daysLeft,
			ProjectedNeedKg: avgDaily * float64(horizonDays),
			HorizonDays:     horizonDays,
		})
	}
	return projections, nil
}
