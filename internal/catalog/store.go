// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/aisleplan/aisleplan/internal/logging"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// ErrNoSnapshot is returned by Load when no snapshot has been persisted.
var ErrNoSnapshot = errors.New("no catalog snapshot")

// snapshotKey is the single key under which the last good catalog lives.
var snapshotKey = []byte("catalog/snapshot")

// Snapshot is a persisted catalog state: the normalized services plus the
// version and fetch time they were captured under.
type Snapshot struct {
	Services  []recommend.Service `json:"services"`
	Version   string              `json:"version"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// SnapshotStore persists the last good catalog snapshot in BadgerDB so a
// restarted process can serve recommendations before its first successful
// upstream fetch.
type SnapshotStore struct {
	db *badger.DB
}

// OpenSnapshotStore opens (or creates) the snapshot database at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog snapshot store: %w", err)
	}

	logging.Info().Str("path", path).Msg("Catalog snapshot store opened")
	return &SnapshotStore{db: db}, nil
}

// Save persists snap, replacing any previous snapshot.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal catalog snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("persist catalog snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot, or ErrNoSnapshot when none exists.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	var snap Snapshot

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNoSnapshot
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	return &snap, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
