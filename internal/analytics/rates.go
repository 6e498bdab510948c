// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"sort"
	"strings"

	"github.com/tomtom215/circulation/internal/models"
)

var periodsPerYear = map[byte]float64{
	'W': 52,
	'M': 12,
	'Y': 1,
}

// AnnualizedRate converts a rate charged per length units of lenType
// (W, M or Y) into a yearly amount rounded to cents. Unknown types and a
// zero length return 0.
//
//	AnnualizedRate(169, 12, "M") // 169
//	AnnualizedRate(15, 1, "M")   // 180
func AnnualizedRate(amount, length float64, lenType string) float64 {
	lenType = strings.ToUpper(strings.TrimSpace(lenType))
	if length <= 0 || lenType == "" {
		return 0
	}
	per, ok := periodsPerYear[lenType[0]]
	if !ok {
		return 0
	}
	return round(amount/length*per, 2)
}

// RateView is a rate as shown on the rates screen.
type RateView struct {
	models.RateFlag
	SubscriberCount int     `json:"subscriber_count"`
	MarketRate      float64 `json:"market_rate"`
	IsMarket        bool    `json:"is_market"`
}

type marketKey struct {
	paper  string
	length string
}

// ClassifyRates marks market rates. The market rate of a (paper,
// subscription length) pair is its highest amount; a rate is market only
// when it carries that amount and has no legacy, ignored or special flag.
//
// Zero-amount rates are dropped. When usage is non-nil it maps zone to
// subscriber count and rates in zones without subscribers are dropped too.
func ClassifyRates(rates []models.RateFlag, usage map[string]int) []RateView {
	views := make([]RateView, 0, len(rates))
	for i := range rates {
		r := rates[i]
		if r.RateAmount <= 0 {
			continue
		}
		count := usage[r.Zone]
		if usage != nil && count == 0 {
			continue
		}
		views = append(views, RateView{RateFlag: r, SubscriberCount: count})
	}

	market := make(map[marketKey]float64)
	for i := range views {
		k := marketKey{views[i].PaperCode, views[i].SubscriptionLength}
		if views[i].RateAmount > market[k] {
			market[k] = views[i].RateAmount
		}
	}
	for i := range views {
		v := &views[i]
		v.MarketRate = market[marketKey{v.PaperCode, v.SubscriptionLength}]
		v.IsMarket = v.RateAmount == v.MarketRate && !v.Flagged()
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.PaperCode != b.PaperCode {
			return a.PaperCode < b.PaperCode
		}
		if a.SubscriptionLength != b.SubscriptionLength {
			return a.SubscriptionLength < b.SubscriptionLength
		}
		if a.RateAmount != b.RateAmount {
			return a.RateAmount > b.RateAmount
		}
		return a.Zone < b.Zone
	})
	return views
}
