package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/cirrus/internal/weather"
)

// ---- mock fetchers ----

type mockObservationFetcher struct {
	fetchFn func(ctx context.Context, city string) (*weather.Observation, error)
	calls   int
}

func (m *mockObservationFetcher) Fetch(ctx context.Context, city string) (*weather.Observation, error) {
	m.calls++
	return m.fetchFn(ctx, city)
}

type mockAPODFetcher struct {
	fetchFn func(ctx context.Context) (*weather.APOD, error)
	calls   int
}

func (m *mockAPODFetcher) Fetch(ctx context.Context) (*weather.APOD, error) {
	m.calls++
	return m.fetchFn(ctx)
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (s *stepClock) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *stepClock) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func newServiceForTest(obs *mockObservationFetcher, apod *mockAPODFetcher) (*weather.Service, *stepClock) {
	clk := &stepClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	return weather.NewServiceWithClients(obs, apod, clk.Now), clk
}

func TestServiceCurrent_CachesWithinTTL(t *testing.T) {
	obs := &mockObservationFetcher{
		fetchFn: func(_ context.Context, _ string) (*weather.Observation, error) {
			return &weather.Observation{City: "Belgrade", Temperature: 20}, nil
		},
	}
	svc, clk := newServiceForTest(obs, &mockAPODFetcher{})
	ctx := context.Background()

	first, err := svc.Current(ctx, "Belgrade")
	require.NoError(t, err)
	assert.Equal(t, 20.0, first.Temperature)

	clk.Advance(4 * time.Minute)

	_, err = svc.Current(ctx, "belgrade")
	require.NoError(t, err)
	assert.Equal(t, 1, obs.calls, "cased variant within TTL must hit the cache")

	clk.Advance(2 * time.Minute)

	_, err = svc.Current(ctx, "Belgrade")
	require.NoError(t, err)
	assert.Equal(t, 2, obs.calls, "expired observation must be refetched")
}

func TestServiceCurrent_FetchFailurePropagates(t *testing.T) {
	upstream := errors.New("connection refused")
	obs := &mockObservationFetcher{
		fetchFn: func(_ context.Context, _ string) (*weather.Observation, error) {
			return nil, upstream
		},
	}
	svc, _ := newServiceForTest(obs, &mockAPODFetcher{})

	_, err := svc.Current(context.Background(), "Belgrade")
	require.ErrorIs(t, err, upstream)

	// No negative caching: the retry reaches the source again.
	_, err = svc.Current(context.Background(), "Belgrade")
	require.ErrorIs(t, err, upstream)
	assert.Equal(t, 2, obs.calls)
}

func TestServicePictureOfDay_SharedEntryAndLongTTL(t *testing.T) {
	apod := &mockAPODFetcher{
		fetchFn: func(_ context.Context) (*weather.APOD, error) {
			return &weather.APOD{URL: "https://apod.nasa.gov/a.jpg", Title: "A"}, nil
		},
	}
	svc, clk := newServiceForTest(&mockObservationFetcher{}, apod)
	ctx := context.Background()

	_, err := svc.PictureOfDay(ctx)
	require.NoError(t, err)

	// Well past the weather TTL but inside the 12-hour picture TTL.
	clk.Advance(11 * time.Hour)

	pic, err := svc.PictureOfDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", pic.Title)
	assert.Equal(t, 1, apod.calls)

	clk.Advance(2 * time.Hour)

	_, err = svc.PictureOfDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, apod.calls)
}
