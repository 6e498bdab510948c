// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomtom215/circulation/internal/models"
)

// FilePattern maps a filename glob to a report type.
type FilePattern struct {
	Glob     string
	FileType string
}

// DefaultPatterns lists the vendor export names in match order. The first
// match wins, so the specific subscriber and vacation names precede the
// looser ones.
var DefaultPatterns = []FilePattern{
	{Glob: "AllSubscriberReport*.csv", FileType: models.FileTypeSubscribers},
	{Glob: "AllSub*.csv", FileType: models.FileTypeSubscribers},
	{Glob: "SubscribersOnVacation*.csv", FileType: models.FileTypeVacations},
	{Glob: "*Vacation*.csv", FileType: models.FileTypeVacations},
	{Glob: "*Renewal*.csv", FileType: models.FileTypeRenewals},
	{Glob: "*Churn*.csv", FileType: models.FileTypeRenewals},
	{Glob: "*rates*.csv", FileType: models.FileTypeRates},
}

// DetectFileType returns the report type for a filename.
func DetectFileType(name string, patterns []FilePattern) (string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	base := filepath.Base(name)
	for _, p := range patterns {
		ok, err := path.Match(p.Glob, base)
		if err != nil {
			return "", fmt.Errorf("pattern %q: %w", p.Glob, err)
		}
		if ok {
			return p.FileType, nil
		}
	}
	// The vendor is inconsistent about the case of "rates".
	if strings.HasSuffix(strings.ToLower(base), ".csv") && strings.Contains(strings.ToLower(base), "rates") {
		return models.FileTypeRates, nil
	}
	return "", fmt.Errorf("%s: %w", base, ErrUnknownReport)
}

// ValidFileType reports whether t names a known report type.
func ValidFileType(t string) bool {
	switch t {
	case models.FileTypeSubscribers, models.FileTypeVacations, models.FileTypeRenewals, models.FileTypeRates:
		return true
	}
	return false
}
