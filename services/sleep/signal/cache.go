// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signal

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Parsing a multi-hour recording from CSV dominates pipeline start-up,
// so parsed recordings are cached in an embedded BadgerDB keyed by
// record name. BadgerDB gives ~100µs local reads without an external
// service, matching the tiered-storage approach used elsewhere in the
// Aleutian stack.

// CacheConfig holds configuration for the recording cache.
type CacheConfig struct {
	// Path is the directory for BadgerDB files. Required unless InMemory.
	Path string

	// InMemory enables in-memory mode (no disk persistence). For tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. If nil, BadgerDB
	// logging is disabled.
	Logger *slog.Logger
}

// DefaultCacheConfig returns production defaults for a persistent cache.
func DefaultCacheConfig(path string) CacheConfig {
	return CacheConfig{Path: path, SyncWrites: true}
}

// InMemoryCacheConfig returns a configuration for testing.
func InMemoryCacheConfig() CacheConfig {
	return CacheConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Cache stores parsed recordings in an embedded BadgerDB.
//
// Thread Safety: Safe for concurrent use.
type Cache struct {
	db *badger.DB
}

// OpenCache opens the recording cache with the given configuration.
//
// Description:
//
//	Opens a BadgerDB at the configured path, or in memory if InMemory
//	is set. Creates the directory if it doesn't exist.
//
// Outputs:
//
//	*Cache - The opened cache. Caller must call Close() when done.
//	error - Non-nil if the path is invalid or the database cannot open.
func OpenCache(cfg CacheConfig) (*Cache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open recording cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached recording for a record name.
//
// Outputs:
//
//	Recording - The cached recording, valid only when found.
//	bool - True if the record was present.
//	error - Non-nil on decode or storage failure.
func (c *Cache) Get(name string) (Recording, bool, error) {
	var rec Recording
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&rec); err != nil {
				return fmt.Errorf("decode cached recording %s: %w", name, err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return Recording{}, false, err
	}
	return rec, found, nil
}

// Put stores a recording under its name.
func (c *Cache) Put(rec Recording) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode recording %s: %w", rec.Name, err)
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(rec.Name), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("store recording %s: %w", rec.Name, err)
	}
	return nil
}
