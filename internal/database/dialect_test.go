// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"strings"
	"testing"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", DialectDuckDB, false},
		{"DuckDB", DialectDuckDB, false},
		{"mysql", DialectMySQL, false},
		{"mariadb", DialectMySQL, false},
		{"postgresql", DialectPostgres, false},
		{"pgx", DialectPostgres, false},
		{"sqlite", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"duckdb untouched", DialectDuckDB, "a = ? AND b = ?", "a = ? AND b = ?"},
		{"mysql untouched", DialectMySQL, "a = ?", "a = ?"},
		{"postgres numbered", DialectPostgres, "a = ? AND b IN (?, ?)", "a = $1 AND b IN ($2, $3)"},
		{"postgres skips literals", DialectPostgres, "a = '?' AND b = ?", "a = '?' AND b = $1"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.in); got != tt.want {
				t.Errorf("Rebind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("t", []string{"a", "b"}, 2)
	want := "INSERT INTO t (a, b) VALUES (?, ?), (?, ?)"
	if got != want {
		t.Errorf("insertSQL() = %q, want %q", got, want)
	}
}

func TestUpsertSQL(t *testing.T) {
	cols := []string{"k", "v", "w"}
	keys := []string{"k"}
	update := without(cols, keys...)

	duck := DialectDuckDB.upsertSQL("t", cols, keys, update, 1)
	if !strings.HasSuffix(duck, "ON CONFLICT (k) DO UPDATE SET v = excluded.v, w = excluded.w") {
		t.Errorf("duckdb upsert = %q", duck)
	}

	pg := DialectPostgres.upsertSQL("t", cols, keys, update, 1)
	if pg != duck {
		t.Errorf("postgres upsert = %q, want %q", pg, duck)
	}

	my := DialectMySQL.upsertSQL("t", cols, keys, update, 1)
	if !strings.HasSuffix(my, "ON DUPLICATE KEY UPDATE v = VALUES(v), w = VALUES(w)") {
		t.Errorf("mysql upsert = %q", my)
	}
}

func TestWithout(t *testing.T) {
	got := without([]string{"a", "b", "c", "d"}, "b", "d")
	if strings.Join(got, ",") != "a,c" {
		t.Errorf("without() = %v, want [a c]", got)
	}
}

func TestTimestampType(t *testing.T) {
	if got := DialectMySQL.timestampType(); got != "DATETIME" {
		t.Errorf("mysql timestampType = %q, want DATETIME", got)
	}
	if got := DialectDuckDB.timestampType(); got != "TIMESTAMP" {
		t.Errorf("duckdb timestampType = %q, want TIMESTAMP", got)
	}
}
