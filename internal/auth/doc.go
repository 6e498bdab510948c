// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package auth authenticates API callers.

Modes, selected by security.auth_mode:
  - none: every request is accepted as the anonymous subject
  - basic: HTTP Basic against the configured admin account
  - jwt: HS256 bearer tokens issued by POST /api/v1/auth/login

There is one operator account. Its password is held as a bcrypt hash; the
configured value may itself be a bcrypt hash, in which case it is used as
is.

Login attempts are limited per client IP with a token bucket so the
password cannot be brute forced through the login endpoint. Basic mode
shares the same limiter for failed attempts.

The authenticated Subject is stored in the request context:

	subject := auth.SubjectFromContext(r.Context())
*/
package auth
