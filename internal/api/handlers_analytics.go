// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/cache"
	"github.com/tomtom215/circulation/internal/validation"
)

// Analytics actions accepted by GET /analytics.
const (
	ActionOverview           = "overview"
	ActionBusinessUnitDetail = "business_unit_detail"
	ActionPaper              = "paper"
	ActionDataRange          = "data_range"
	ActionDetailPanel        = "detail_panel"
	ActionGetSubscribers     = "get_subscribers"
	ActionGetTrend           = "get_trend"
	ActionRates              = "rates"
	ActionRevenue            = "revenue"
)

const isoDate = "2006-01-02"

// analyticsQuery is the query string of GET /analytics. Which fields an
// action reads is decided by the action.
type analyticsQuery struct {
	Action       string `query:"action" json:"action" validate:"required,oneof=overview business_unit_detail paper data_range detail_panel get_subscribers get_trend rates revenue"`
	Date         string `query:"date" json:"date,omitempty" validate:"omitempty,isodate"`
	Compare      string `query:"compare" json:"compare,omitempty" validate:"omitempty,oneof=yoy previous none"`
	Unit         string `query:"unit" json:"unit,omitempty" validate:"max=100"`
	Code         string `query:"code" json:"code,omitempty" validate:"omitempty,papercode"`
	BusinessUnit string `query:"business_unit" json:"business_unit,omitempty" validate:"max=100"`
	SnapshotDate string `query:"snapshot_date" json:"snapshot_date,omitempty" validate:"omitempty,isodate"`
	MetricType   string `query:"metric_type" json:"metric_type,omitempty" validate:"omitempty,oneof=expiration rate subscription_length"`
	MetricValue  string `query:"metric_value" json:"metric_value,omitempty" validate:"max=255"`
	TimeRange    string `query:"time_range" json:"time_range,omitempty" validate:"max=20"`
	EndDate      string `query:"end_date" json:"end_date,omitempty" validate:"omitempty,isodate"`
}

func parseAnalyticsQuery(r *http.Request) analyticsQuery {
	v := r.URL.Query()
	return analyticsQuery{
		Action:       v.Get("action"),
		Date:         v.Get("date"),
		Compare:      v.Get("compare"),
		Unit:         v.Get("unit"),
		Code:         v.Get("code"),
		BusinessUnit: v.Get("business_unit"),
		SnapshotDate: v.Get("snapshot_date"),
		MetricType:   v.Get("metric_type"),
		MetricValue:  v.Get("metric_value"),
		TimeRange:    v.Get("time_range"),
		EndDate:      v.Get("end_date"),
	}
}

// optionalDate parses a validated YYYY-MM-DD value; empty gives nil.
func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return nil
	}
	return &t
}

func requiredDate(param, s string) (time.Time, error) {
	if t := optionalDate(s); t != nil {
		return *t, nil
	}
	return time.Time{}, paramError(param, "is required")
}

func (q analyticsQuery) metric() analytics.MetricQuery {
	return analytics.MetricQuery{
		BusinessUnit: q.BusinessUnit,
		MetricType:   q.MetricType,
		MetricValue:  q.MetricValue,
	}
}

// cacheable reports whether the action's response may be shared through
// the response cache. Subscriber drill-downs carry contact details and are
// always read fresh.
func (q analyticsQuery) cacheable() bool {
	return q.Action != ActionGetSubscribers
}

// Analytics handles GET /analytics?action=...
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := parseAnalyticsQuery(r)
	if verr := validation.ValidateStruct(q); verr != nil {
		writeServiceError(w, r, verr)
		return
	}
	if q.Action == ActionGetTrend && q.EndDate == "" {
		q.EndDate = time.Now().UTC().Format(isoDate)
	}

	rw := NewResponseWriter(w, r)
	key := cache.GenerateKey("analytics."+q.Action, q)
	if q.cacheable() {
		if raw, ok := h.cache.Get(r.Context(), key); ok {
			rw.Cached(raw)
			return
		}
	}

	data, err := h.runAnalytics(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if q.cacheable() {
		if raw, err := json.Marshal(data); err == nil {
			h.cache.Set(r.Context(), key, raw)
		} else {
			logOf(r).Warn().Err(err).Str("action", q.Action).Msg("Failed to encode analytics response for cache")
		}
	}
	rw.Success(data)
}

func (h *Handler) runAnalytics(ctx context.Context, q analyticsQuery) (interface{}, error) {
	switch q.Action {
	case ActionOverview:
		return h.analytics.Overview(ctx, analytics.OverviewRequest{Date: optionalDate(q.Date), Compare: q.Compare})
	case ActionBusinessUnitDetail:
		return h.analytics.BusinessUnitDetail(ctx, q.Unit, optionalDate(q.Date))
	case ActionPaper:
		return h.analytics.Paper(ctx, q.Code)
	case ActionDataRange:
		return h.analytics.DataRange(ctx)
	case ActionDetailPanel:
		date, err := requiredDate("snapshot_date", q.SnapshotDate)
		if err != nil {
			return nil, err
		}
		return h.analytics.DetailPanel(ctx, q.BusinessUnit, date)
	case ActionGetSubscribers:
		date, err := requiredDate("snapshot_date", q.SnapshotDate)
		if err != nil {
			return nil, err
		}
		return h.analytics.Subscribers(ctx, q.metric(), date)
	case ActionGetTrend:
		end, err := requiredDate("end_date", q.EndDate)
		if err != nil {
			return nil, err
		}
		return h.analytics.Trend(ctx, q.metric(), q.TimeRange, end)
	case ActionRates:
		return h.analytics.Rates(ctx)
	case ActionRevenue:
		return h.analytics.Revenue(ctx, optionalDate(q.Date))
	}
	return nil, paramError("action", "unknown action "+q.Action)
}
