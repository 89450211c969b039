package meteo_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/cirrus/internal/meteo"
)

func TestParseUnit(t *testing.T) {
	for _, s := range []string{"celsius", "fahrenheit", "kelvin"} {
		u, err := meteo.ParseUnit(s)
		require.NoError(t, err)
		assert.Equal(t, meteo.Unit(s), u)
	}

	_, err := meteo.ParseUnit("rankine")
	require.ErrorIs(t, err, meteo.ErrInvalidUnit)
}

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		celsius float64
		unit    meteo.Unit
		want    float64
		symbol  string
	}{
		{0, meteo.UnitCelsius, 0, "°C"},
		{21.37, meteo.UnitCelsius, 21.4, "°C"},
		{0, meteo.UnitFahrenheit, 32, "°F"},
		{100, meteo.UnitFahrenheit, 212, "°F"},
		{-40, meteo.UnitFahrenheit, -40, "°F"},
		{0, meteo.UnitKelvin, 273.2, "K"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_%s", tt.celsius, tt.unit), func(t *testing.T) {
			got, symbol, err := meteo.ConvertTemperature(tt.celsius, tt.unit)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.06)
			assert.Equal(t, tt.symbol, symbol)
		})
	}
}

func TestConvertTemperature_InvalidUnit(t *testing.T) {
	_, _, err := meteo.ConvertTemperature(20, meteo.Unit("reaumur"))
	require.ErrorIs(t, err, meteo.ErrInvalidUnit)
}

func TestConvertTemperature_FahrenheitRoundTrip(t *testing.T) {
	for _, celsius := range []float64{-30, -5.5, 0, 12.3, 25, 37.8} {
		f, _, err := meteo.ConvertTemperature(celsius, meteo.UnitFahrenheit)
		require.NoError(t, err)

		back := (f - 32) * 5 / 9
		assert.InDelta(t, celsius, back, 0.06, "round trip via fahrenheit for %v", celsius)
	}
}

func TestCardinalDirection(t *testing.T) {
	tests := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{354, "N"}, // wraparound sector
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{337.5, "NNW"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, meteo.CardinalDirection(tt.degrees), "degrees=%v", tt.degrees)
	}
}

func TestVisibilityCategory(t *testing.T) {
	tests := []struct {
		meters int
		want   string
	}{
		{15000, "Excellent (>10km)"},
		{10000, "Excellent (>10km)"},
		{9999, "Good (5-10km)"},
		{5000, "Good (5-10km)"},
		{4999, "Moderate (2-5km)"},
		{2000, "Moderate (2-5km)"},
		{1999, "Poor (1-2km)"},
		{1000, "Poor (1-2km)"},
		{800, "Very Poor (800m)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, meteo.VisibilityCategory(tt.meters), "meters=%d", tt.meters)
	}
}

func TestClassifyClouds(t *testing.T) {
	clear := meteo.ClassifyClouds(0)
	assert.Equal(t, "SKC", clear.Code)
	assert.Equal(t, 0, clear.Oktas)

	overcast := meteo.ClassifyClouds(100)
	assert.Equal(t, "OVC", overcast.Code)
	assert.Equal(t, 8, overcast.Oktas)

	half := meteo.ClassifyClouds(50)
	assert.Equal(t, 4, half.Oktas)
	assert.Equal(t, "SCT", half.Code)

	broken := meteo.ClassifyClouds(75)
	assert.Equal(t, 6, broken.Oktas)
	assert.Equal(t, "BKN", broken.Code)
}

func TestClassifyClouds_OutOfRangeClampsToOvercast(t *testing.T) {
	for _, pct := range []float64{150, -40} {
		got := meteo.ClassifyClouds(pct)
		assert.Equal(t, "OVC", got.Code, "pct=%v", pct)
		assert.Equal(t, 8, got.Oktas, "pct=%v", pct)
	}
}
