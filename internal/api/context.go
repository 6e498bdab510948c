// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/logging"
)

// UploadMeta describes an uploaded report file.
type UploadMeta struct {
	Filename string
	Size     int64
	Hash     string
}

// RequestContext is the request-scoped state a handler works with. It is
// built once from the request instead of read piecemeal from headers and
// context values.
type RequestContext struct {
	RequestID string
	Subject   *auth.Subject
	ClientIP  string
	UserAgent string

	// Upload is set by upload handlers once the file has been read.
	Upload *UploadMeta
}

// NewRequestContext collects the request ID, authenticated subject and
// client details of r.
func NewRequestContext(r *http.Request) *RequestContext {
	return &RequestContext{
		RequestID: logging.RequestIDFromContext(r.Context()),
		ClientIP:  auth.ClientIP(r),
		UserAgent: r.UserAgent(),
		Subject:   auth.SubjectFromContext(r.Context()),
	}
}

// Username is the authenticated operator, or "anonymous".
func (rc *RequestContext) Username() string {
	if rc == nil || rc.Subject == nil || rc.Subject.Username == "" {
		return auth.AnonymousUsername
	}
	return rc.Subject.Username
}

// SetUpload records the metadata of data read from filename.
func (rc *RequestContext) SetUpload(filename string, data []byte) {
	sum := sha256.Sum256(data)
	rc.Upload = &UploadMeta{
		Filename: filename,
		Size:     int64(len(data)),
		Hash:     hex.EncodeToString(sum[:]),
	}
}

// Logger returns the request logger with the subject and upload attached.
func (rc *RequestContext) Logger(r *http.Request) zerolog.Logger {
	l := logging.Ctx(r.Context()).With().Str("user", rc.Username())
	if rc.Upload != nil {
		l = l.Str("filename", rc.Upload.Filename).
			Int64("file_size", rc.Upload.Size).
			Str("file_hash", rc.Upload.Hash)
	}
	return l.Logger()
}

func logOf(r *http.Request) *zerolog.Logger {
	return logging.Ctx(r.Context())
}
