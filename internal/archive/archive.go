// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/circulation/internal/config"
)

// Backend names.
const (
	BackendNone = "none"
	BackendFile = "file"
	BackendS3   = "s3"
)

// ErrInvalidKey is returned for keys that are empty or escape the archive
// root.
var ErrInvalidKey = errors.New("invalid archive key")

// Store writes raw report bytes under a key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Backend() string
}

// New builds the configured store. It returns a nil Store when archiving
// is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		return nil, nil
	case BackendFile:
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendS3:
		ss, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return ss, nil
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
