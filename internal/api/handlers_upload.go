// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/models"
)

// UploadField is the multipart field carrying the report file.
const UploadField = "file"

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// uploadKinds maps the /upload/{kind} path segment to a report type.
var uploadKinds = map[string]string{
	"subscribers": models.FileTypeSubscribers,
	"vacations":   models.FileTypeVacations,
	"renewals":    models.FileTypeRenewals,
	"rates":       models.FileTypeRates,
}

// Upload handles POST /upload/{kind}.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	fileType, ok := uploadKinds[kind]
	if !ok {
		NewResponseWriter(w, r).NotFound(fmt.Sprintf("unknown upload type %q", kind))
		return
	}

	rc := NewRequestContext(r)
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rc.SetUpload(filename, data)
	log := rc.Logger(r)
	log.Info().Str("file_type", fileType).Msg("Report upload received")

	res, err := h.ingester.Process(r.Context(), ingest.Upload{
		Filename:   filename,
		FileType:   fileType,
		Data:       data,
		UploadedBy: rc.Username(),
		IPAddress:  rc.ClientIP,
		UserAgent:  rc.UserAgent,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if h.flushOnUpload {
		if err := h.cache.Flush(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Failed to flush analytics cache after upload")
		}
	}
	NewResponseWriter(w, r).Success(res)
}

// readUpload reads the report file of a multipart request, bounded by the
// configured upload limit.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, uploadErr(err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		return "", nil, paramError(UploadField, "a CSV file is required")
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", nil, paramError(UploadField, "only .csv files are accepted")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, uploadErr(err)
	}
	if len(data) == 0 {
		return "", nil, paramError(UploadField, "file is empty")
	}
	return name, data, nil
}

func uploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", errUploadTooLarge, tooLarge.Limit)
	}
	return paramError(UploadField, "malformed multipart body")
}
