// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/models"
)

// TopicUploads carries models.UploadEvent messages.
const TopicUploads = "uploads"

// MetadataRequestID is the message metadata key holding the request ID of
// the upload that produced the event.
const MetadataRequestID = "request_id"

// UploadHandler reacts to upload events.
type UploadHandler interface {
	Name() string
	HandleUpload(ctx context.Context, ev models.UploadEvent) error
}

// Bus publishes upload events and dispatches them to handlers.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	started bool
	closed  bool
}

// errBusClosed is returned by Run after Close.
var errBusClosed = errors.New("event bus closed")

// NewBus creates the pub/sub and the router. Handlers must be added
// before Run.
func NewBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 100 * time.Millisecond
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	return &Bus{pubsub: pubsub, router: router, logger: logger}, nil
}

// PublishUpload publishes ev on TopicUploads.
func (b *Bus) PublishUpload(ctx context.Context, ev models.UploadEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode upload event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}
	if err := b.pubsub.Publish(TopicUploads, msg); err != nil {
		return fmt.Errorf("publish upload event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(TopicUploads).Inc()
	return nil
}

// AddHandler subscribes h to TopicUploads.
func (b *Bus) AddHandler(h UploadHandler) {
	name := h.Name()
	b.router.AddConsumerHandler(name, TopicUploads, b.pubsub, func(msg *message.Message) error {
		var ev models.UploadEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// A malformed payload never decodes; retrying is pointless.
			b.logger.Error("Dropping undecodable upload event", err, watermill.LogFields{
				"handler":      name,
				"message_uuid": msg.UUID,
			})
			metrics.EventsHandled.WithLabelValues(name, "decode_error").Inc()
			return nil
		}

		ctx := msg.Context()
		if id := msg.Metadata.Get(MetadataRequestID); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx = logging.ContextWithUploadID(ctx, ev.UploadID)

		if err := h.HandleUpload(ctx, ev); err != nil {
			metrics.EventsHandled.WithLabelValues(name, "error").Inc()
			return err
		}
		metrics.EventsHandled.WithLabelValues(name, "success").Inc()
		return nil
	})
}

// Run blocks until ctx is canceled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBusClosed
	}
	b.started = true
	b.mu.Unlock()
	return b.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router, waiting up to the close timeout for in-flight
// handlers, then closes the pub/sub. A router that never ran is not
// closed; it would only wait out the close timeout.
func (b *Bus) Close() error {
	b.mu.Lock()
	started := b.started
	b.closed = true
	b.mu.Unlock()

	var rerr error
	if started {
		rerr = b.router.Close()
	}
	perr := b.pubsub.Close()
	if rerr != nil {
		return fmt.Errorf("close router: %w", rerr)
	}
	if perr != nil {
		return fmt.Errorf("close pubsub: %w", perr)
	}
	return nil
}
