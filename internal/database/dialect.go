// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/circulation/internal/database/query"
)

// Dialect selects the SQL flavour of the connected store.
type Dialect string

const (
	DialectDuckDB   Dialect = "duckdb"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "duckdb":
		return DialectDuckDB, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "pgx"
	default:
		return "duckdb"
	}
}

// Rebind rewrites "?" placeholders as "$1", "$2", ... for PostgreSQL.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(q string) string {
	if d != DialectPostgres || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	inQuote := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// timestampType is the column type for instants.
func (d Dialect) timestampType() string {
	if d == DialectMySQL {
		return "DATETIME"
	}
	return "TIMESTAMP"
}

// insertSQL builds a multi-row INSERT of rows tuples.
func insertSQL(table string, cols []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	tuple := "(" + query.Placeholders(len(cols)) + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

// upsertSQL builds a multi-row INSERT that overwrites update columns when a
// row with the same keys exists.
func (d Dialect) upsertSQL(table string, cols, keys, update []string, rows int) string {
	base := insertSQL(table, cols, rows)
	sets := make([]string, len(update))
	if d == DialectMySQL {
		for i, c := range update {
			sets[i] = c + " = VALUES(" + c + ")"
		}
		return base + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	for i, c := range update {
		sets[i] = c + " = excluded." + c
	}
	return base + " ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// without returns cols minus drop, preserving order.
func without(cols []string, drop ...string) []string {
	skip := make(map[string]bool, len(drop))
	for _, c := range drop {
		skip[c] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}
