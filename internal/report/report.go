// Package report composes observations, derived metrics, and station
// preferences into delivery-ready report records.
package report

import (
	"fmt"
	"time"

	"github.com/neexbeast/cirrus/internal/meteo"
	"github.com/neexbeast/cirrus/internal/settings"
	"github.com/neexbeast/cirrus/internal/weather"
)

// Derived holds the quantities computed from a raw observation.
type Derived struct {
	Dewpoint      float64          `json:"dewpoint"`     // °C
	HeatIndex     float64          `json:"heat_index"`   // °C
	AirDensity    float64          `json:"air_density"`  // kg/m³
	CloudBase     int              `json:"cloud_base_m"` // meters AGL
	Clouds        meteo.CloudCover `json:"clouds"`
	WindDirection string           `json:"wind_direction"`
	Visibility    string           `json:"visibility"`
}

// Temperatures carries the temperature readings converted to the station's
// preferred unit.
type Temperatures struct {
	Symbol    string  `json:"symbol"`
	Actual    float64 `json:"actual"`
	FeelsLike float64 `json:"feels_like"`
	HeatIndex float64 `json:"heat_index"`
	Dewpoint  float64 `json:"dewpoint"`
}

// Report is one assembled atmospheric report. It is built fresh for every
// request and discarded after delivery.
type Report struct {
	Station      settings.Station    `json:"station"`
	LocalTime    string              `json:"local_time"`
	Observation  weather.Observation `json:"observation"`
	Derived      Derived             `json:"derived"`
	Temperatures Temperatures        `json:"temperatures"`
	Astronomy    *weather.APOD       `json:"astronomy,omitempty"`
}

// Assemble builds a Report from an observation and the station preferences.
// Pure composition: derivations and unit conversion only, no I/O and no
// re-fetching. The local time string falls back to UTC when the station's
// timezone cannot be resolved.
func Assemble(st settings.Station, obs weather.Observation, now time.Time) (*Report, error) {
	dewpoint := meteo.Dewpoint(obs.Temperature, obs.Humidity)
	heatIndex := meteo.HeatIndex(obs.Temperature, obs.Humidity)

	derived := Derived{
		Dewpoint:      dewpoint,
		HeatIndex:     heatIndex,
		AirDensity:    meteo.AirDensity(obs.Temperature, obs.Pressure, obs.Humidity),
		CloudBase:     meteo.CloudBaseHeight(obs.Temperature, dewpoint),
		Clouds:        meteo.ClassifyClouds(obs.CloudCover),
		WindDirection: meteo.CardinalDirection(obs.WindDeg),
		Visibility:    meteo.VisibilityCategory(obs.Visibility),
	}

	unit := st.TempUnit
	if unit == "" {
		unit = settings.DefaultUnit
	}

	actual, symbol, err := meteo.ConvertTemperature(obs.Temperature, unit)
	if err != nil {
		return nil, fmt.Errorf("converting temperature: %w", err)
	}
	feels, _, err := meteo.ConvertTemperature(obs.FeelsLike, unit)
	if err != nil {
		return nil, fmt.Errorf("converting feels-like temperature: %w", err)
	}
	hi, _, err := meteo.ConvertTemperature(heatIndex, unit)
	if err != nil {
		return nil, fmt.Errorf("converting heat index: %w", err)
	}
	dew, _, err := meteo.ConvertTemperature(dewpoint, unit)
	if err != nil {
		return nil, fmt.Errorf("converting dewpoint: %w", err)
	}

	loc, locErr := st.Location()
	if locErr != nil {
		loc = time.UTC
	}

	return &Report{
		Station:     st,
		LocalTime:   now.In(loc).Format("2006-01-02 15:04:05 MST"),
		Observation: obs,
		Derived:     derived,
		Temperatures: Temperatures{
			Symbol:    symbol,
			Actual:    actual,
			FeelsLike: feels,
			HeatIndex: hi,
			Dewpoint:  dew,
		},
	}, nil
}
