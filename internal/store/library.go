package store

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/events"
)

const librarySnapshotKey = "library:snapshot"

// LibrarySnapshot is the persisted form of the merged library, kept so the
// API can serve entries before the first sweep after a restart completes.
type LibrarySnapshot struct {
	Entries   []domain.LibraryEntry `json:"entries"`
	BuiltAt   time.Time             `json:"built_at"`
	SweepSeq  uint64                `json:"sweep_seq"`
	TitleScan int                   `json:"title_scan"`
}

// SaveLibrary persists the merged library snapshot and announces it.
func (s *Store) SaveLibrary(snap *LibrarySnapshot) error {
	if err := s.set([]byte(librarySnapshotKey), snap); err != nil {
		return err
	}
	s.eventEmitter.Emit(events.NewLibraryUpdatedEvent(len(snap.Entries), snap.BuiltAt))
	return nil
}

// LoadLibrary returns the persisted library snapshot, or nil if none has
// been saved yet.
func (s *Store) LoadLibrary() (*LibrarySnapshot, error) {
	var snap LibrarySnapshot
	err := s.get([]byte(librarySnapshotKey), &snap)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// HasLibrary reports whether a library snapshot exists.
func (s *Store) HasLibrary() (bool, error) {
	return s.exists([]byte(librarySnapshotKey))
}
