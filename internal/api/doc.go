// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package api is the HTTP JSON API of Circulation.

Routes (all under /api/v1):

	POST /upload/{subscribers|vacations|renewals|rates}   multipart field "file"
	GET  /analytics?action=...                             dashboard queries
	GET  /uploads                                          recent raw uploads
	POST /rates/flags                                      manual rate flags
	POST /auth/login                                       jwt mode only
	GET  /health, /health/live, /health/ready

GET /metrics serves Prometheus metrics outside the API prefix.

Analytics actions are overview, business_unit_detail, paper, data_range,
detail_panel, get_subscribers, get_trend and rates. Query parameters are
validated with go-playground/validator before the analytics service runs,
and responses other than subscriber drill-downs go through the response
cache, which the event bus flushes after each completed import.

Every response is an envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}
	{"success": false, "error": {"code": "INVALID_FORMAT", "message": "...", "request_id": "..."}}

Domain errors map to codes in errors.go: malformed reports are 422
INVALID_FORMAT, bad parameters 400 VALIDATION_ERROR, missing data 404
NOT_FOUND and store failures 500 DATABASE_ERROR with a generic message.
*/
package api
