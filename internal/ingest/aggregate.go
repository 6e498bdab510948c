// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"sort"

	"github.com/tomtom215/circulation/internal/models"
	"github.com/tomtom215/circulation/internal/snapshot"
)

// Aggregator folds subscriber records into per-(snapshot_date, paper_code)
// summaries. Memory grows with distinct keys, not with records.
type Aggregator struct {
	totals map[models.SnapshotKey]*models.DailySnapshot
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{totals: make(map[models.SnapshotKey]*models.DailySnapshot)}
}

// Add counts one record.
func (a *Aggregator) Add(rec *models.SubscriberRecord) {
	key := models.SnapshotKey{SnapshotDate: rec.SnapshotDate, PaperCode: rec.PaperCode}
	s, ok := a.totals[key]
	if !ok {
		week, year := snapshot.Week(rec.SnapshotDate)
		s = &models.DailySnapshot{
			SnapshotDate:   rec.SnapshotDate,
			WeekNum:        week,
			Year:           year,
			PaperCode:      rec.PaperCode,
			PaperName:      rec.PaperName,
			BusinessUnit:   rec.BusinessUnit,
			SourceFilename: rec.SourceFilename,
			SourceDate:     rec.SourceDate,
		}
		a.totals[key] = s
	}

	s.TotalActive++
	switch rec.DeliveryType {
	case models.DeliveryMail:
		s.MailDelivery++
	case models.DeliveryCarrier:
		s.CarrierDelivery++
	case models.DeliveryDigital:
		s.DigitalOnly++
	}
	if rec.OnVacation {
		s.OnVacation++
	}
}

// Len returns the number of distinct keys seen.
func (a *Aggregator) Len() int { return len(a.totals) }

// Flush returns the summaries sorted by snapshot date then paper code, with
// Deliverable computed.
func (a *Aggregator) Flush() []models.DailySnapshot {
	out := make([]models.DailySnapshot, 0, len(a.totals))
	for _, s := range a.totals {
		snap := *s
		snap.Deliverable = snap.TotalActive - snap.OnVacation
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SnapshotDate.Equal(out[j].SnapshotDate) {
			return out[i].SnapshotDate.Before(out[j].SnapshotDate)
		}
		return out[i].PaperCode < out[j].PaperCode
	})
	return out
}
