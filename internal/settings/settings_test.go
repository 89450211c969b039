package settings_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/cirrus/internal/settings"
)

func TestZoneNameForOffset(t *testing.T) {
	tests := []struct {
		offset int
		want   string
	}{
		{0, "UTC"},
		{7200, "UTC+02:00"},
		{19800, "UTC+05:30"},
		{-14400, "UTC-04:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, settings.ZoneNameForOffset(tt.offset), "offset=%d", tt.offset)
	}
}

func TestStationLocation_Empty(t *testing.T) {
	loc, err := settings.Station{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestStationLocation_IANA(t *testing.T) {
	loc, err := settings.Station{Timezone: "Europe/Belgrade"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Belgrade", loc.String())
}

func TestStationLocation_FixedOffset(t *testing.T) {
	loc, err := settings.Station{Timezone: "UTC+05:30"}.Location()
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 5, at.Hour())
	assert.Equal(t, 30, at.Minute())

	loc, err = settings.Station{Timezone: "UTC-04:00"}.Location()
	require.NoError(t, err)
	at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 8, at.Hour())
}

func TestStationLocation_Unknown(t *testing.T) {
	for _, tz := range []string{"Mars/Olympus", "UTC+bogus", "GMT5"} {
		_, err := settings.Station{Timezone: tz}.Location()
		require.Error(t, err, "tz=%q", tz)
	}
}
