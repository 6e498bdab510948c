// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package query provides SQL query building utilities for the database package.
//
// The WhereBuilder assembles parameterized WHERE clauses:
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("snapshot_date = ?", date)
//	wb.AddIn("paper_code", []string{"TR", "LJ", "WRN"})
//	wb.AddNotIn("paper_code", excluded)
//	whereClause, args := wb.Build()
//	// snapshot_date = ? AND paper_code IN (?, ?, ?) AND paper_code NOT IN (?)
//
// Values always travel as arguments; only column names and operators are
// written into the SQL text.
package query
