// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import (
	"sort"
	"strings"
)

// UnknownBusinessUnit is assigned to paper codes missing from the catalog.
const UnknownBusinessUnit = "Unknown"

// Paper describes one publication edition.
type Paper struct {
	Code         string `json:"paper_code" koanf:"code"`
	Name         string `json:"paper_name" koanf:"name"`
	BusinessUnit string `json:"business_unit" koanf:"business_unit"`
}

// PaperCatalog resolves paper codes to names and business units.
type PaperCatalog struct {
	papers map[string]Paper
}

// DefaultPapers is the publication list of the circulation system.
func DefaultPapers() []Paper {
	return []Paper{
		{Code: "TJ", Name: "The Journal", BusinessUnit: "South Carolina"},
		{Code: "TA", Name: "The Advertiser", BusinessUnit: "Michigan"},
		{Code: "TR", Name: "The Ranger", BusinessUnit: "Wyoming"},
		{Code: "LJ", Name: "The Lander Journal", BusinessUnit: "Wyoming"},
		{Code: "WRN", Name: "Wind River News", BusinessUnit: "Wyoming"},
		{Code: "FN", Name: "Former News", BusinessUnit: "Sold"},
	}
}

// NewPaperCatalog builds a catalog. Codes are matched case-insensitively.
func NewPaperCatalog(papers []Paper) *PaperCatalog {
	c := &PaperCatalog{papers: make(map[string]Paper, len(papers))}
	for _, p := range papers {
		code := strings.ToUpper(strings.TrimSpace(p.Code))
		if code == "" {
			continue
		}
		p.Code = code
		c.papers[code] = p
	}
	return c
}

// Lookup returns the paper for code. Unknown codes resolve to a paper named
// after the code in the Unknown business unit.
func (c *PaperCatalog) Lookup(code string) Paper {
	code = strings.ToUpper(strings.TrimSpace(code))
	if p, ok := c.papers[code]; ok {
		return p
	}
	return Paper{Code: code, Name: code, BusinessUnit: UnknownBusinessUnit}
}

// Papers returns all catalog entries sorted by code.
func (c *PaperCatalog) Papers() []Paper {
	out := make([]Paper, 0, len(c.papers))
	for _, p := range c.papers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
