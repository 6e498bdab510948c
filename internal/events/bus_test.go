// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/models"
)

type recordingHandler struct {
	name     string
	failures int

	mu       sync.Mutex
	calls    int
	received []models.UploadEvent
	reqIDs   []string
	done     chan struct{}
}

func newRecordingHandler(name string, failures int) *recordingHandler {
	return &recordingHandler{name: name, failures: failures, done: make(chan struct{}, 16)}
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) HandleUpload(ctx context.Context, ev models.UploadEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	h.received = append(h.received, ev)
	h.reqIDs = append(h.reqIDs, logging.RequestIDFromContext(ctx))
	h.done <- struct{}{}
	return nil
}

func startBus(t *testing.T, handlers ...UploadHandler) *Bus {
	t.Helper()
	bus, err := NewBus(config.EventsConfig{
		BufferSize:           8,
		CloseTimeout:         time.Second,
		RetryCount:           3,
		RetryInitialInterval: time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	for _, h := range handlers {
		bus.AddHandler(h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- bus.Run(ctx) }()

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
		<-errCh
	})
	return bus
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestBusDeliversUploadEvent(t *testing.T) {
	h := newRecordingHandler("recorder", 0)
	bus := startBus(t, h)

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicUploads))
	ev := models.UploadEvent{
		UploadID:      42,
		FileType:      models.FileTypeSubscribers,
		Filename:      "AllSubscriberReport20251208.csv",
		Status:        models.UploadCompleted,
		SnapshotDates: []time.Time{time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)},
		Rows:          8000,
		OccurredAt:    time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC),
	}
	ctx := logging.ContextWithRequestID(context.Background(), "req-1")
	if err := bus.PublishUpload(ctx, ev); err != nil {
		t.Fatalf("PublishUpload: %v", err)
	}
	waitFor(t, h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.received) != 1 {
		t.Fatalf("received %d events, want 1", len(h.received))
	}
	got := h.received[0]
	if got.UploadID != 42 || got.Rows != 8000 || !got.SnapshotDates[0].Equal(ev.SnapshotDates[0]) {
		t.Errorf("received %+v, want %+v", got, ev)
	}
	if h.reqIDs[0] != "req-1" {
		t.Errorf("request id = %q, want req-1", h.reqIDs[0])
	}
	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicUploads))
	if after-before != 1 {
		t.Errorf("published counter delta = %v, want 1", after-before)
	}
}

func TestBusRetriesFailingHandler(t *testing.T) {
	h := newRecordingHandler("flaky", 2)
	bus := startBus(t, h)

	if err := bus.PublishUpload(context.Background(), models.UploadEvent{UploadID: 7, Status: models.UploadCompleted}); err != nil {
		t.Fatalf("PublishUpload: %v", err)
	}
	waitFor(t, h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.calls != 3 {
		t.Errorf("calls = %d, want 3", h.calls)
	}
	if got := testutil.ToFloat64(metrics.EventsHandled.WithLabelValues("flaky", "success")); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
}

func TestBusFansOutToEveryHandler(t *testing.T) {
	a := newRecordingHandler("first", 0)
	b := newRecordingHandler("second", 0)
	bus := startBus(t, a, b)

	if err := bus.PublishUpload(context.Background(), models.UploadEvent{UploadID: 1}); err != nil {
		t.Fatalf("PublishUpload: %v", err)
	}
	waitFor(t, a.done)
	waitFor(t, b.done)
}

func TestBusDropsUndecodablePayload(t *testing.T) {
	h := newRecordingHandler("strict", 0)
	bus := startBus(t, h)

	before := testutil.ToFloat64(metrics.EventsHandled.WithLabelValues("strict", "decode_error"))
	if err := bus.pubsub.Publish(TopicUploads, message.NewMessage("bad", []byte("not json"))); err != nil {
		t.Fatal(err)
	}
	// A valid event published afterwards still arrives.
	if err := bus.PublishUpload(context.Background(), models.UploadEvent{UploadID: 2}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, h.done)

	after := testutil.ToFloat64(metrics.EventsHandled.WithLabelValues("strict", "decode_error"))
	if after-before != 1 {
		t.Errorf("decode_error delta = %v, want 1", after-before)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.received) != 1 || h.received[0].UploadID != 2 {
		t.Errorf("received %+v, want only upload 2", h.received)
	}
}

func TestBusCloseWithoutRun(t *testing.T) {
	bus, err := NewBus(config.EventsConfig{CloseTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	bus.AddHandler(newRecordingHandler("recorder", 0))

	start := time.Now()
	if err := bus.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close() took %v, want it to skip the router close timeout", elapsed)
	}
	if err := bus.Run(context.Background()); !errors.Is(err, errBusClosed) {
		t.Errorf("Run() after Close = %v, want %v", err, errBusClosed)
	}
}
