// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// errRouterStopped is returned when the event router exits while its
// context is still live.
var errRouterStopped = errors.New("event router stopped unexpectedly")

// EventRouter is the run loop of the upload event bus.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventsService runs the upload event router under suture. A watermill
// router cannot be started twice, so an unexpected exit is reported with
// suture.ErrDoNotRestart instead of being restarted.
type EventsService struct {
	router EventRouter
}

// NewEventsService wraps router.
func NewEventsService(router EventRouter) *EventsService {
	return &EventsService{router: router}
}

// Serve implements suture.Service.
func (s *EventsService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errRouterStopped
	}
	return fmt.Errorf("%w: %w", err, suture.ErrDoNotRestart)
}

func (s *EventsService) String() string {
	return "event-router"
}
