// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/models"
)

// Flusher is the part of the response cache the invalidator needs.
type Flusher interface {
	Flush(ctx context.Context) error
}

// CacheInvalidator flushes cached analytics after new data lands.
type CacheInvalidator struct {
	cache Flusher
}

// NewCacheInvalidator creates a CacheInvalidator for c.
func NewCacheInvalidator(c Flusher) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

func (*CacheInvalidator) Name() string { return "cache-invalidator" }

// HandleUpload flushes on completed uploads only. A failed upload rolled
// back and changed nothing.
func (c *CacheInvalidator) HandleUpload(ctx context.Context, ev models.UploadEvent) error {
	if ev.Status != models.UploadCompleted {
		return nil
	}
	if err := c.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush response cache: %w", err)
	}
	metrics.CacheInvalidations.Inc()
	logging.Ctx(ctx).Debug().Str("file_type", ev.FileType).Msg("Response cache flushed")
	return nil
}

// NotificationLog writes upload outcomes to a dedicated logger.
type NotificationLog struct {
	logger zerolog.Logger
}

// NewNotificationLog creates a NotificationLog. A zero logger uses the
// global logger tagged with component=notifications.
func NewNotificationLog(logger *zerolog.Logger) *NotificationLog {
	if logger == nil {
		l := logging.WithComponent("notifications")
		logger = &l
	}
	return &NotificationLog{logger: *logger}
}

func (*NotificationLog) Name() string { return "notification-log" }

func (n *NotificationLog) HandleUpload(ctx context.Context, ev models.UploadEvent) error {
	event := n.logger.Info()
	if ev.Status == models.UploadFailed {
		event = n.logger.Warn().Str("error", ev.Error)
	}
	dates := make([]string, len(ev.SnapshotDates))
	for i, d := range ev.SnapshotDates {
		dates[i] = d.Format("2006-01-02")
	}
	event.
		Int64("upload_id", ev.UploadID).
		Str("file_type", ev.FileType).
		Str("filename", ev.Filename).
		Str("status", ev.Status).
		Int("rows", ev.Rows).
		Strs("snapshot_dates", dates).
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Time("occurred_at", ev.OccurredAt).
		Msg("Upload processed")
	return nil
}
