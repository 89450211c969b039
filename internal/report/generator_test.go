package report_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/cirrus/internal/report"
	"github.com/neexbeast/cirrus/internal/weather"
)

// ---- mock sources ----

type mockObservations struct {
	currentFn func(ctx context.Context, city string) (weather.Observation, error)
}

func (m *mockObservations) Current(ctx context.Context, city string) (weather.Observation, error) {
	return m.currentFn(ctx, city)
}

type mockAstronomy struct {
	pictureFn func(ctx context.Context) (weather.APOD, error)
	calls     int
}

func (m *mockAstronomy) PictureOfDay(ctx context.Context) (weather.APOD, error) {
	m.calls++
	if m.pictureFn != nil {
		return m.pictureFn(ctx)
	}
	return weather.APOD{}, errors.New("not configured")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
}

func TestGenerate_WithAstronomy(t *testing.T) {
	obs := &mockObservations{
		currentFn: func(_ context.Context, city string) (weather.Observation, error) {
			assert.Equal(t, "Belgrade", city)
			return sampleObservation(), nil
		},
	}
	apod := &mockAstronomy{
		pictureFn: func(context.Context) (weather.APOD, error) {
			return weather.APOD{URL: "https://apod.nasa.gov/a.jpg", Title: "A"}, nil
		},
	}

	g := report.NewGeneratorWithClock(obs, apod, fixedNow, discardLogger())

	rep, err := g.Generate(context.Background(), sampleStation(), true)
	require.NoError(t, err)
	require.NotNil(t, rep.Astronomy)
	assert.Equal(t, "A", rep.Astronomy.Title)
	assert.Equal(t, "Belgrade", rep.Observation.City)
}

func TestGenerate_WithoutAstronomySkipsFetch(t *testing.T) {
	obs := &mockObservations{
		currentFn: func(context.Context, string) (weather.Observation, error) {
			return sampleObservation(), nil
		},
	}
	apod := &mockAstronomy{}

	g := report.NewGeneratorWithClock(obs, apod, fixedNow, discardLogger())

	rep, err := g.Generate(context.Background(), sampleStation(), false)
	require.NoError(t, err)
	assert.Nil(t, rep.Astronomy)
	assert.Equal(t, 0, apod.calls)
}

func TestGenerate_ObservationFailureIsFatal(t *testing.T) {
	upstream := errors.New("timeout")
	obs := &mockObservations{
		currentFn: func(context.Context, string) (weather.Observation, error) {
			return weather.Observation{}, upstream
		},
	}

	g := report.NewGeneratorWithClock(obs, &mockAstronomy{}, fixedNow, discardLogger())

	_, err := g.Generate(context.Background(), sampleStation(), false)
	require.ErrorIs(t, err, upstream)
}

func TestGenerate_AstronomyFailureDegradesGracefully(t *testing.T) {
	obs := &mockObservations{
		currentFn: func(context.Context, string) (weather.Observation, error) {
			return sampleObservation(), nil
		},
	}
	apod := &mockAstronomy{
		pictureFn: func(context.Context) (weather.APOD, error) {
			return weather.APOD{}, errors.New("nasa is down")
		},
	}

	g := report.NewGeneratorWithClock(obs, apod, fixedNow, discardLogger())

	rep, err := g.Generate(context.Background(), sampleStation(), true)
	require.NoError(t, err, "astronomy failure must not fail the report")
	assert.Nil(t, rep.Astronomy)
}

func TestGenerate_PanicInFetchIsRecovered(t *testing.T) {
	obs := &mockObservations{
		currentFn: func(context.Context, string) (weather.Observation, error) {
			panic("unexpected provider payload")
		},
	}

	g := report.NewGeneratorWithClock(obs, &mockAstronomy{}, fixedNow, discardLogger())

	_, err := g.Generate(context.Background(), sampleStation(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}
