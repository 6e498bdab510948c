// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeRouter struct {
	err  error
	exit bool
}

func (f *fakeRouter) Run(ctx context.Context) error {
	if f.exit {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestEventsServiceStopsWithContext(t *testing.T) {
	svc := NewEventsService(&fakeRouter{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if svc.String() != "event-router" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestEventsServiceUnexpectedExit(t *testing.T) {
	runErr := errors.New("subscribe failed")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"router error", runErr, runErr},
		{"clean exit", nil, errRouterStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEventsService(&fakeRouter{exit: true, err: tt.err}).Serve(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Serve() = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, suture.ErrDoNotRestart) {
				t.Errorf("Serve() = %v, want it to wrap suture.ErrDoNotRestart", err)
			}
		})
	}
}
