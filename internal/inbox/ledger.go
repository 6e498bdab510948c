// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package inbox

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/circulation/internal/logging"
)

const ledgerKeyPrefix = "inbox:"

// Record is what the ledger keeps per imported file.
type Record struct {
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	UploadID    int64     `json:"upload_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Ledger remembers imported content hashes.
type Ledger interface {
	// Lookup returns the record for hash, or nil when unseen.
	Lookup(hash string) (*Record, error)
	Mark(hash string, rec Record) error
	Close() error
}

// MemoryLedger is a Ledger that forgets on restart.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]Record)}
}

func (l *MemoryLedger) Lookup(hash string) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[hash]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *MemoryLedger) Mark(hash string, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[hash] = rec
	return nil
}

func (*MemoryLedger) Close() error { return nil }

// BadgerLedger persists the ledger in BadgerDB.
type BadgerLedger struct {
	db *badger.DB
}

// OpenBadgerLedger opens or creates the ledger at path. An empty path
// opens an in-memory database.
func OpenBadgerLedger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logging.WithComponent("inbox-ledger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open inbox ledger: %w", err)
	}
	return &BadgerLedger{db: db}, nil
}

func (l *BadgerLedger) Lookup(hash string) (*Record, error) {
	var rec Record
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ledgerKeyPrefix + hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger entry: %w", err)
	}
	return &rec, nil
}

func (l *BadgerLedger) Mark(hash string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ledgerKeyPrefix+hash), data)
	})
}

func (l *BadgerLedger) Close() error {
	return l.db.Close()
}

// badgerLogger routes badger's printf logging through zerolog. Info is
// demoted to debug; badger is chatty at startup.
type badgerLogger struct {
	log zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error().Msgf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warn().Msgf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Debug().Msgf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Trace().Msgf(format, args...)
}
