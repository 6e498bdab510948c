// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package analytics turns weekly circulation snapshots into the figures the
dashboard shows.

The package has two layers:

  - Pure functions over week series: WeekBoundaries, Compare,
    TrendDirection, Forecast, DetectAnomalies, FindPerformers,
    ExpirationBucket, NormalizeSubscriptionLength, ClassifyRates and
    AnnualizedRate. They take plain values and never touch storage.
  - Service, which answers the analytics API actions by combining Store
    queries with the pure functions.

Series are expressed as []Point where a nil Value marks a week with no
uploaded snapshot. Functions that need numbers skip missing weeks; they
never treat a missing week as zero.
*/
package analytics
