// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// DefaultMarketRate is the yearly market rate assumed for a paper with no
// rate structure.
const DefaultMarketRate = 169.99

// Revenue risk buckets, in display order. Each is a four-week window of
// paid-through dates after the snapshot date.
const (
	RiskExpired    = "Expired"
	RiskWeeks0to4  = "0-4 weeks"
	RiskWeeks5to8  = "5-8 weeks"
	RiskWeeks9to12 = "9-12 weeks"
	RiskWeeks13    = "13+ weeks"
)

// RiskBuckets lists the revenue risk buckets in the order of the bounds
// returned by riskBounds.
var RiskBuckets = []string{RiskExpired, RiskWeeks0to4, RiskWeeks5to8, RiskWeeks9to12, RiskWeeks13}

// riskBounds returns the paid-through boundaries of RiskBuckets for date:
// before date, then on or before 28, 56 and 84 days after it.
func riskBounds(date time.Time) []time.Time {
	return []time.Time{date, date.AddDate(0, 0, 28), date.AddDate(0, 0, 56), date.AddDate(0, 0, 84)}
}

// RevenueGroup is the paying subscriber count and revenue of a group.
// Payments are treated as yearly amounts.
type RevenueGroup struct {
	Name          string  `json:"name"`
	Subscribers   int     `json:"subscribers"`
	AnnualRevenue float64 `json:"annual_revenue"`
	ARPU          float64 `json:"arpu"`
	MRR           float64 `json:"mrr"`
	MRRPerSub     float64 `json:"mrr_per_subscriber"`
}

func (g *RevenueGroup) add(subs int, revenue float64) {
	g.Subscribers += subs
	g.AnnualRevenue += revenue
}

func (g *RevenueGroup) finish() {
	if g.Subscribers > 0 {
		g.ARPU = round(g.AnnualRevenue/float64(g.Subscribers), 2)
	}
	g.MRR = round(g.AnnualRevenue/12, 2)
	g.MRRPerSub = round(g.ARPU/12, 2)
	g.AnnualRevenue = round(g.AnnualRevenue, 2)
}

// PublicationOpportunity compares what a paper's legacy-rate subscribers
// pay with what they would pay at its yearly market rate.
type PublicationOpportunity struct {
	BusinessUnit      string  `json:"business_unit"`
	PaperCode         string  `json:"paper_code"`
	PaperName         string  `json:"paper_name"`
	Subscribers       int     `json:"total_subscribers"`
	LegacySubscribers int     `json:"legacy_subscribers"`
	AvgLegacyRate     float64 `json:"avg_legacy_rate"`
	MarketRateAnnual  float64 `json:"market_rate_annual"`
	CurrentMRR        float64 `json:"current_total_mrr"`
	LegacyMRR         float64 `json:"current_legacy_mrr"`
	IfConvertedMRR    float64 `json:"if_converted_mrr"`
	OpportunityMRR    float64 `json:"opportunity_mrr"`
}

// OpportunityTotals sums PublicationOpportunity over every paper.
type OpportunityTotals struct {
	LegacySubscribers int     `json:"legacy_subscribers"`
	AvgLegacyRate     float64 `json:"avg_legacy_rate"`
	CurrentMRR        float64 `json:"current_total_mrr"`
	LegacyMRR         float64 `json:"current_legacy_mrr"`
	IfConvertedMRR    float64 `json:"if_converted_mrr"`
	OpportunityMRR    float64 `json:"opportunity_mrr"`
	AnnualOpportunity float64 `json:"annual_opportunity"`
}

// RiskBucket is the revenue of subscribers whose paid-through date falls
// in one bucket.
type RiskBucket struct {
	Bucket        string       `json:"bucket"`
	BusinessUnit  string       `json:"business_unit,omitempty"`
	Subscribers   int          `json:"subscribers"`
	RevenueAtRisk float64      `json:"revenue_at_risk"`
	AvgPayment    float64      `json:"avg_payment"`
	Units         []RiskBucket `json:"by_business_unit,omitempty"`
}

func (b *RiskBucket) finish() {
	if b.Subscribers > 0 {
		b.AvgPayment = round(b.RevenueAtRisk/float64(b.Subscribers), 2)
	}
	b.RevenueAtRisk = round(b.RevenueAtRisk, 2)
}

// RevenueReport is the revenue intelligence screen for one snapshot date.
type RevenueReport struct {
	SnapshotDate   time.Time                `json:"snapshot_date"`
	Totals         RevenueGroup             `json:"totals"`
	ByDeliveryType []RevenueGroup           `json:"by_delivery_type"`
	ByBusinessUnit []RevenueGroup           `json:"by_business_unit"`
	Opportunity    []PublicationOpportunity `json:"opportunity_by_publication"`
	Legacy         OpportunityTotals        `json:"legacy_totals"`
	ExpirationRisk []RiskBucket             `json:"expiration_risk"`
}

// Revenue builds the revenue report of date, or of the latest snapshot when
// date is nil.
func (s *Service) Revenue(ctx context.Context, date *time.Time) (*RevenueReport, error) {
	d, err := s.resolveDate(ctx, date)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.RevenueRows(ctx, d)
	if err != nil {
		return nil, err
	}
	markets, err := s.store.AnnualMarketRates(ctx)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.RevenueAtRisk(ctx, d, riskBounds(d))
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{
		SnapshotDate:   d,
		Totals:         RevenueGroup{Name: "All"},
		ByDeliveryType: groupRevenue(rows, func(r *models.RevenueRow) string { return r.DeliveryType }),
		ByBusinessUnit: groupRevenue(rows, func(r *models.RevenueRow) string { return r.BusinessUnit }),
		ExpirationRisk: revenueRisk(risk),
	}
	for i := range rows {
		report.Totals.add(rows[i].Subscribers, rows[i].Revenue)
	}
	report.Totals.finish()
	report.Opportunity, report.Legacy = legacyOpportunity(rows, markets)

	// Largest delivery type first.
	sort.SliceStable(report.ByDeliveryType, func(i, j int) bool {
		return report.ByDeliveryType[i].Subscribers > report.ByDeliveryType[j].Subscribers
	})
	return report, nil
}

// groupRevenue sums rows by key, ordered by key.
func groupRevenue(rows []models.RevenueRow, key func(*models.RevenueRow) string) []RevenueGroup {
	idx := make(map[string]int)
	var out []RevenueGroup
	for i := range rows {
		k := key(&rows[i])
		j, ok := idx[k]
		if !ok {
			j = len(out)
			idx[k] = j
			out = append(out, RevenueGroup{Name: k})
		}
		out[j].add(rows[i].Subscribers, rows[i].Revenue)
	}
	for i := range out {
		out[i].finish()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// legacyOpportunity sums rows per paper and prices its legacy subscribers
// at the paper's yearly market rate, or DefaultMarketRate when it has none.
func legacyOpportunity(rows []models.RevenueRow, markets map[string]float64) ([]PublicationOpportunity, OpportunityTotals) {
	type acc struct {
		op            PublicationOpportunity
		revenue       float64
		legacyRevenue float64
	}
	idx := make(map[string]int)
	var papers []acc
	for i := range rows {
		r := &rows[i]
		j, ok := idx[r.PaperCode]
		if !ok {
			j = len(papers)
			idx[r.PaperCode] = j
			papers = append(papers, acc{op: PublicationOpportunity{
				BusinessUnit: r.BusinessUnit,
				PaperCode:    r.PaperCode,
				PaperName:    r.PaperName,
			}})
		}
		a := &papers[j]
		a.op.Subscribers += r.Subscribers
		a.op.LegacySubscribers += r.LegacySubscribers
		a.revenue += r.Revenue
		a.legacyRevenue += r.LegacyRevenue
	}

	var totals OpportunityTotals
	var legacyRevenue float64
	out := make([]PublicationOpportunity, 0, len(papers))
	for i := range papers {
		a := &papers[i]
		market, ok := markets[a.op.PaperCode]
		if !ok {
			market = DefaultMarketRate
		}
		current := a.revenue / 12
		legacy := a.legacyRevenue / 12
		converted := float64(a.op.LegacySubscribers) * market / 12

		op := a.op
		op.MarketRateAnnual = round(market, 2)
		op.CurrentMRR = round(current, 2)
		op.LegacyMRR = round(legacy, 2)
		op.IfConvertedMRR = round(converted, 2)
		op.OpportunityMRR = round(converted-legacy, 2)
		if op.LegacySubscribers > 0 {
			op.AvgLegacyRate = round(a.legacyRevenue/float64(op.LegacySubscribers), 2)
		}
		out = append(out, op)

		totals.LegacySubscribers += op.LegacySubscribers
		totals.CurrentMRR += current
		totals.LegacyMRR += legacy
		totals.IfConvertedMRR += converted
		legacyRevenue += a.legacyRevenue
	}

	if totals.LegacySubscribers > 0 {
		totals.AvgLegacyRate = round(legacyRevenue/float64(totals.LegacySubscribers), 2)
	}
	opportunity := totals.IfConvertedMRR - totals.LegacyMRR
	totals.OpportunityMRR = round(opportunity, 2)
	totals.AnnualOpportunity = round(opportunity*12, 2)
	totals.CurrentMRR = round(totals.CurrentMRR, 2)
	totals.LegacyMRR = round(totals.LegacyMRR, 2)
	totals.IfConvertedMRR = round(totals.IfConvertedMRR, 2)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BusinessUnit != out[j].BusinessUnit {
			return out[i].BusinessUnit < out[j].BusinessUnit
		}
		return out[i].PaperCode < out[j].PaperCode
	})
	return out, totals
}

// revenueRisk folds per-unit risk rows into RiskBuckets, every bucket
// present and in display order.
func revenueRisk(rows []models.RiskRow) []RiskBucket {
	out := make([]RiskBucket, len(RiskBuckets))
	for i, name := range RiskBuckets {
		out[i].Bucket = name
	}
	for _, r := range rows {
		if r.Bucket < 0 || r.Bucket >= len(out) {
			continue
		}
		b := &out[r.Bucket]
		b.Subscribers += r.Subscribers
		b.RevenueAtRisk += r.Revenue
		unit := RiskBucket{
			Bucket:        b.Bucket,
			BusinessUnit:  r.BusinessUnit,
			Subscribers:   r.Subscribers,
			RevenueAtRisk: r.Revenue,
		}
		unit.finish()
		b.Units = append(b.Units, unit)
	}
	for i := range out {
		out[i].finish()
	}
	return out
}
