// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

const recomputeVacationSQL = `UPDATE daily_snapshots SET
	on_vacation = (SELECT COUNT(*) FROM subscriber_snapshots s
		WHERE s.snapshot_date = daily_snapshots.snapshot_date
		AND s.paper_code = daily_snapshots.paper_code
		AND s.on_vacation = TRUE),
	deliverable = total_active - (SELECT COUNT(*) FROM subscriber_snapshots s
		WHERE s.snapshot_date = daily_snapshots.snapshot_date
		AND s.paper_code = daily_snapshots.paper_code
		AND s.on_vacation = TRUE),
	updated_at = ?
WHERE snapshot_date = ?`

// ApplyVacations marks each subscriber's most recent snapshot row as on
// vacation, then recounts on_vacation and deliverable for every touched
// snapshot date. Subscribers with no snapshot row are reported in NotFound
// as "SUB|PAPER".
func (db *DB) ApplyVacations(ctx context.Context, updates []models.VacationUpdate) (models.VacationResult, error) {
	var res models.VacationResult
	if len(updates) == 0 {
		return res, nil
	}
	now := db.now().UTC()

	err := db.withTx(ctx, "apply_vacations", func(tx *sql.Tx) error {
		touched := make(map[time.Time]bool)

		for i := range updates {
			u := &updates[i]
			var latest sql.NullTime
			err := db.queryRow(ctx, tx,
				`SELECT MAX(snapshot_date) FROM subscriber_snapshots WHERE sub_num = ? AND paper_code = ?`,
				u.SubNum, u.PaperCode).Scan(&latest)
			if err != nil {
				return fmt.Errorf("latest snapshot for %s/%s: %w", u.SubNum, u.PaperCode, err)
			}
			if !latest.Valid {
				res.NotFound = append(res.NotFound, u.SubNum+"|"+u.PaperCode)
				continue
			}

			date := dateOnly(latest.Time)
			_, err = db.exec(ctx, tx,
				`UPDATE subscriber_snapshots
				SET on_vacation = TRUE, vacation_start = ?, vacation_end = ?, vacation_weeks = ?, updated_at = ?
				WHERE snapshot_date = ? AND sub_num = ? AND paper_code = ?`,
				dateOnly(u.VacationStart), dateOnly(u.VacationEnd), u.VacationWeeks, now,
				date, u.SubNum, u.PaperCode)
			if err != nil {
				return fmt.Errorf("mark %s/%s on vacation: %w", u.SubNum, u.PaperCode, err)
			}
			touched[date] = true
			res.SubscribersUpdated++
		}

		dates := make([]time.Time, 0, len(touched))
		for d := range touched {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		for _, d := range dates {
			result, err := db.exec(ctx, tx, recomputeVacationSQL, now, d)
			if err != nil {
				return fmt.Errorf("recount vacations for %s: %w", d.Format("2006-01-02"), err)
			}
			if n, err := result.RowsAffected(); err == nil {
				res.SnapshotsUpdated += int(n)
			}
		}
		res.SnapshotDates = dates
		return nil
	})
	if err != nil {
		return models.VacationResult{}, err
	}
	return res, nil
}
