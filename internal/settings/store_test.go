package settings_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/cirrus/internal/meteo"
	"github.com/neexbeast/cirrus/internal/settings"
)

// ---- mock persister ----

type mockPersister struct {
	mu     sync.Mutex
	loadFn func(ctx context.Context) (map[int64]settings.Station, error)
	saveFn func(ctx context.Context, stations map[int64]settings.Station) error
	saved  []map[int64]settings.Station
}

func (m *mockPersister) Load(ctx context.Context) (map[int64]settings.Station, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return map[int64]settings.Station{}, nil
}

func (m *mockPersister) Save(ctx context.Context, stations map[int64]settings.Station) error {
	m.mu.Lock()
	m.saved = append(m.saved, stations)
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, stations)
	}
	return nil
}

func (m *mockPersister) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func belgradeStation() settings.Station {
	return settings.Station{
		City:       "Belgrade",
		Country:    "RS",
		Lat:        44.8,
		Lon:        20.47,
		Timezone:   "Europe/Belgrade",
		TempUnit:   settings.DefaultUnit,
		ReportHour: settings.DefaultReportHour,
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	s := settings.NewStore(&mockPersister{}, testLogger())
	_, err := s.Get(42)
	require.ErrorIs(t, err, settings.ErrNotFound)
}

func TestStoreSetAndGet(t *testing.T) {
	p := &mockPersister{}
	s := settings.NewStore(p, testLogger())

	require.NoError(t, s.Set(context.Background(), 42, belgradeStation()))

	got, err := s.Get(42)
	require.NoError(t, err)
	assert.Equal(t, "Belgrade", got.City)
	assert.Equal(t, 1, p.saveCount(), "set must trigger a save")
}

func TestStoreUpdate_PartialFields(t *testing.T) {
	p := &mockPersister{}
	s := settings.NewStore(p, testLogger())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 42, belgradeStation()))

	hour := 21
	updated, err := s.Update(ctx, 42, settings.Update{ReportHour: &hour})
	require.NoError(t, err)

	assert.Equal(t, 21, updated.ReportHour)
	assert.Equal(t, settings.DefaultUnit, updated.TempUnit, "unit must be untouched")
	assert.Equal(t, "Belgrade", updated.City)

	unit := meteo.UnitFahrenheit
	updated, err = s.Update(ctx, 42, settings.Update{TempUnit: &unit})
	require.NoError(t, err)
	assert.Equal(t, meteo.UnitFahrenheit, updated.TempUnit)
	assert.Equal(t, 21, updated.ReportHour, "hour must survive the second update")
}

func TestStoreUpdate_UnknownUser(t *testing.T) {
	s := settings.NewStore(&mockPersister{}, testLogger())
	hour := 9
	_, err := s.Update(context.Background(), 7, settings.Update{ReportHour: &hour})
	require.ErrorIs(t, err, settings.ErrNotFound)
}

func TestStoreLoad_PersisterFailureStartsEmpty(t *testing.T) {
	p := &mockPersister{
		loadFn: func(context.Context) (map[int64]settings.Station, error) {
			return nil, errors.New("disk on fire")
		},
	}
	s := settings.NewStore(p, testLogger())

	s.Load(context.Background())
	assert.Equal(t, 0, s.Count())
}

func TestStoreLoad_PopulatesMap(t *testing.T) {
	p := &mockPersister{
		loadFn: func(context.Context) (map[int64]settings.Station, error) {
			return map[int64]settings.Station{42: belgradeStation()}, nil
		},
	}
	s := settings.NewStore(p, testLogger())

	s.Load(context.Background())
	assert.Equal(t, 1, s.Count())

	got, err := s.Get(42)
	require.NoError(t, err)
	assert.Equal(t, "Belgrade", got.City)
}

func TestStoreSet_SaveFailureSurfaces(t *testing.T) {
	p := &mockPersister{
		saveFn: func(context.Context, map[int64]settings.Station) error {
			return errors.New("disk full")
		},
	}
	s := settings.NewStore(p, testLogger())

	err := s.Set(context.Background(), 42, belgradeStation())
	require.Error(t, err)
}

func TestStoreAll_ReturnsSnapshot(t *testing.T) {
	s := settings.NewStore(&mockPersister{}, testLogger())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, 1, belgradeStation()))

	snapshot := s.All()
	require.Len(t, snapshot, 1)

	// Mutating after the snapshot must not change it.
	require.NoError(t, s.Set(ctx, 2, belgradeStation()))
	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, s.Count())
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := settings.NewStore(&mockPersister{}, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			st := belgradeStation()
			st.ReportHour = n % 24
			assert.NoError(t, s.Set(ctx, int64(n%5), st))
		}(i)
		go func(n int) {
			defer wg.Done()
			if st, err := s.Get(int64(n % 5)); err == nil {
				// A reader must never see a half-written record.
				assert.Equal(t, "Belgrade", st.City)
			}
		}(i)
	}
	wg.Wait()
}
