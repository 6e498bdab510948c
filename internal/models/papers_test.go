// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "testing"

func TestPaperCatalogLookup(t *testing.T) {
	catalog := NewPaperCatalog([]Paper{
		{Code: " tj ", Name: "The Journal", BusinessUnit: "South Carolina"},
		{Code: "", Name: "Blank"},
	})

	tests := []struct {
		code     string
		wantName string
		wantUnit string
	}{
		{"TJ", "The Journal", "South Carolina"},
		{"tj", "The Journal", "South Carolina"},
		{" Tj", "The Journal", "South Carolina"},
		{"ZZ", "ZZ", UnknownBusinessUnit},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p := catalog.Lookup(tt.code)
			if p.Name != tt.wantName || p.BusinessUnit != tt.wantUnit {
				t.Errorf("Lookup(%q) = %+v, want name %q unit %q", tt.code, p, tt.wantName, tt.wantUnit)
			}
		})
	}

	if n := len(catalog.Papers()); n != 1 {
		t.Errorf("len(Papers()) = %d, want 1", n)
	}
}

func TestDefaultPapersSorted(t *testing.T) {
	papers := NewPaperCatalog(DefaultPapers()).Papers()
	if len(papers) != len(DefaultPapers()) {
		t.Fatalf("len(Papers()) = %d, want %d", len(papers), len(DefaultPapers()))
	}
	for i := 1; i < len(papers); i++ {
		if papers[i-1].Code >= papers[i].Code {
			t.Errorf("Papers() not sorted at %d: %q >= %q", i, papers[i-1].Code, papers[i].Code)
		}
	}
}
