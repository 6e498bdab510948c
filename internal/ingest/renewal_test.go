// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

const renewalReport = `Renewal and Churn Report
Sub ID,Stat,Ed.,Issue Date,Name,Reg Exp,Reg Ren,Reg Stop,Reg Pct,Mon Exp,Mon Ren,Mon Stop,Mon Pct,Comp Exp,Comp Ren,Comp Stop,Comp Pct
1001,RENEW,tj,12/01/25,Ann,1,1,0,100%,,,,,,,,
1002,EXPIRE,TJ,12/02/25,Bob,,,,,1,0,1,0%,,,,
1001,RENEW,TJ,12/01/25,Ann,1,1,0,100%,,,,,,,,
1003,STOP,TJ,12/01/25,Cal,1,,,,,,,,,,,
1004,RENEW,TA,12/01/25,Dee,,,,,,,,,,,,
1005,RENEW,TA,someday,Eve,1,,,,,,,,,,,
,ISSUE,TJ,,12/01/25,10,8,2,80%,0,0,0,0%,5,5,0,100%
,ISSUE,TJ,,12/01/25,12,9,3,75%,,,,,,,,
Total,,,,,,,,,,,,,,,,
`

func TestParseRenewals(t *testing.T) {
	imp, err := ParseRenewals(strings.NewReader(renewalReport), "RenewalReport.csv")
	if err != nil {
		t.Fatalf("ParseRenewals() error = %v", err)
	}

	if len(imp.Events) != 2 {
		t.Fatalf("Events = %d, want 2", len(imp.Events))
	}
	if e := imp.Events[0]; e.PaperCode != "TJ" || e.SubscriptionType != models.SubscriptionRegular || e.SourceFilename != "RenewalReport.csv" {
		t.Errorf("Events[0] = %+v", e)
	}
	if got := imp.Events[1].SubscriptionType; got != models.SubscriptionMonthly {
		t.Errorf("Events[1].SubscriptionType = %s, want MONTHLY", got)
	}
	if imp.DuplicateRows != 1 {
		t.Errorf("DuplicateRows = %d, want 1", imp.DuplicateRows)
	}
	wantTypes := map[string]int{
		models.SubscriptionRegular:       1,
		models.SubscriptionMonthly:       1,
		models.SubscriptionComplimentary: 0,
	}
	if !reflect.DeepEqual(imp.ByType, wantTypes) {
		t.Errorf("ByType = %v, want %v", imp.ByType, wantTypes)
	}
	if got := imp.DateRange(); got != "2025-12-01 to 2025-12-02" {
		t.Errorf("DateRange() = %q", got)
	}

	wantSkips := map[string]int{ReasonInvalidStatus: 1, ReasonUnknownType: 1, ReasonInvalidDate: 1}
	if !reflect.DeepEqual(imp.Stats.SkipReasons, wantSkips) {
		t.Errorf("SkipReasons = %v, want %v", imp.Stats.SkipReasons, wantSkips)
	}
	if imp.Stats.RowsRead != 6 {
		t.Errorf("RowsRead = %d, want 6", imp.Stats.RowsRead)
	}
}

func TestParseRenewals_Summaries(t *testing.T) {
	imp, err := ParseRenewals(strings.NewReader(renewalReport), "RenewalReport.csv")
	if err != nil {
		t.Fatalf("ParseRenewals() error = %v", err)
	}

	if len(imp.Summaries) != 2 {
		t.Fatalf("Summaries = %d, want 2", len(imp.Summaries))
	}
	reg := imp.Summaries[0]
	// The second ISSUE row for the same day replaces the first.
	if reg.SubscriptionType != models.SubscriptionRegular || reg.ExpiringCount != 12 || reg.RenewalRate != 75 || reg.ChurnRate != 25 {
		t.Errorf("regular summary = %+v", reg)
	}
	comp := imp.Summaries[1]
	if comp.SubscriptionType != models.SubscriptionComplimentary || comp.RenewedCount != 5 || comp.ChurnRate != 0 {
		t.Errorf("complimentary summary = %+v", comp)
	}
}

func TestParseRenewals_Empty(t *testing.T) {
	_, err := ParseRenewals(strings.NewReader("Sub ID,Stat,Ed.,Issue Date\nTotal\n"), "r.csv")
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("ParseRenewals() error = %v, want ErrNoRecords", err)
	}
}

func TestRenewalImport_DateRange(t *testing.T) {
	var imp RenewalImport
	if got := imp.DateRange(); got != "" {
		t.Errorf("empty DateRange() = %q, want empty", got)
	}
	imp.MinDate = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	imp.MaxDate = imp.MinDate
	if got := imp.DateRange(); got != "2025-12-01" {
		t.Errorf("single-day DateRange() = %q", got)
	}
}
