// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"testing"

	"github.com/tomtom215/circulation/internal/models"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{"AllSubscriberReport20251208120000.csv", models.FileTypeSubscribers, nil},
		{"/inbox/AllSubs.csv", models.FileTypeSubscribers, nil},
		{"SubscribersOnVacation_20251208.csv", models.FileTypeVacations, nil},
		{"WeeklyVacationList.csv", models.FileTypeVacations, nil},
		{"RenewalChurn.csv", models.FileTypeRenewals, nil},
		{"MonthlyChurn.csv", models.FileTypeRenewals, nil},
		{"current_rates.csv", models.FileTypeRates, nil},
		{"CurrentRATES.CSV", models.FileTypeRates, nil},
		{"notes.txt", "", ErrUnknownReport},
		{"AllSubscriberReport.xlsx", "", ErrUnknownReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(tt.name, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DetectFileType(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFileType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDetectFileType_CustomPatterns(t *testing.T) {
	patterns := []FilePattern{{Glob: "circ-*.csv", FileType: models.FileTypeSubscribers}}
	got, err := DetectFileType("circ-week50.csv", patterns)
	if err != nil || got != models.FileTypeSubscribers {
		t.Errorf("DetectFileType() = %q, %v, want %q", got, err, models.FileTypeSubscribers)
	}

	bad := []FilePattern{{Glob: "[", FileType: models.FileTypeRates}}
	if _, err := DetectFileType("x.csv", bad); err == nil {
		t.Error("DetectFileType() with malformed glob returned nil error")
	}
}

func TestValidFileType(t *testing.T) {
	for _, ft := range []string{models.FileTypeSubscribers, models.FileTypeVacations, models.FileTypeRenewals, models.FileTypeRates} {
		if !ValidFileType(ft) {
			t.Errorf("ValidFileType(%q) = false, want true", ft)
		}
	}
	if ValidFileType("payroll") {
		t.Error("ValidFileType(payroll) = true, want false")
	}
}
