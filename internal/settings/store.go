package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNotFound indicates the user has no configured station.
var ErrNotFound = errors.New("settings: station not found")

// Persister is the persistence side-channel for the station map. It is not a
// second source of truth: every write goes through the Store, which then
// saves a snapshot.
type Persister interface {
	Load(ctx context.Context) (map[int64]Station, error)
	Save(ctx context.Context, stations map[int64]Station) error
}

// Store holds the canonical in-memory station map, keyed by user identifier.
// Safe for concurrent use.
type Store struct {
	persister Persister
	log       *slog.Logger

	mu       sync.RWMutex
	stations map[int64]Station
}

// NewStore constructs an empty Store backed by the given persister.
func NewStore(persister Persister, log *slog.Logger) *Store {
	return &Store{
		persister: persister,
		log:       log,
		stations:  make(map[int64]Station),
	}
}

// Load populates the map from the persister. A missing or corrupt backing
// store means zero users configured, not a fatal error.
func (s *Store) Load(ctx context.Context) {
	stations, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Warn("loading station settings failed, starting empty", "err", err)
		stations = make(map[int64]Station)
	}
	if stations == nil {
		stations = make(map[int64]Station)
	}

	s.mu.Lock()
	s.stations = stations
	s.mu.Unlock()

	s.log.Info("station settings loaded", "stations", len(stations))
}

// Get returns the station for the given user, or ErrNotFound.
func (s *Store) Get(userID int64) (Station, error) {
	s.mu.RLock()
	st, ok := s.stations[userID]
	s.mu.RUnlock()
	if !ok {
		return Station{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return st, nil
}

// Set overwrites the station for the given user and saves a snapshot.
func (s *Store) Set(ctx context.Context, userID int64, st Station) error {
	s.mu.Lock()
	s.stations[userID] = st
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persister.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("saving station settings: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of upd to the user's station and saves a
// snapshot. Readers never observe a half-applied update.
func (s *Store) Update(ctx context.Context, userID int64, upd Update) (Station, error) {
	s.mu.Lock()
	st, ok := s.stations[userID]
	if !ok {
		s.mu.Unlock()
		return Station{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if upd.TempUnit != nil {
		st.TempUnit = *upd.TempUnit
	}
	if upd.ReportHour != nil {
		st.ReportHour = *upd.ReportHour
	}
	s.stations[userID] = st
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persister.Save(ctx, snapshot); err != nil {
		return Station{}, fmt.Errorf("saving station settings: %w", err)
	}
	return st, nil
}

// All returns a snapshot copy of the station map. Mutations made after the
// snapshot is taken are not reflected in it.
func (s *Store) All() map[int64]Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Count reports the number of configured stations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}

func (s *Store) snapshotLocked() map[int64]Station {
	snapshot := make(map[int64]Station, len(s.stations))
	for id, st := range s.stations {
		snapshot[id] = st
	}
	return snapshot
}
