// Package settings owns per-user station configuration: the canonical
// in-memory map plus a persistence side-channel behind the Persister
// interface.
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/cirrus/internal/meteo"
)

// Defaults applied when a station is first registered.
const (
	DefaultUnit       = meteo.UnitCelsius
	DefaultReportHour = 8
)

// Station is one user's observation station configuration.
type Station struct {
	City       string     `json:"city"`
	Country    string     `json:"country"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Timezone   string     `json:"tz"`
	TempUnit   meteo.Unit `json:"temp_unit"`
	ReportHour int        `json:"report_hour"` // 0-23, local time
}

// Update carries a partial settings change; nil fields are left untouched.
// ReportHour must be validated 0-23 by the caller.
type Update struct {
	TempUnit   *meteo.Unit
	ReportHour *int
}

// Location resolves the station's timezone. An empty identifier means UTC.
// IANA names are tried first, then the fixed-offset "UTC±HH:MM" form
// produced by ZoneNameForOffset.
func (s Station) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc, nil
	}
	return parseFixedZone(s.Timezone)
}

// ZoneNameForOffset renders a UTC shift in seconds as a fixed-offset zone
// identifier ("UTC", "UTC+05:30", "UTC-04:00").
func ZoneNameForOffset(offsetSeconds int) string {
	if offsetSeconds == 0 {
		return "UTC"
	}
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offsetSeconds/3600, (offsetSeconds%3600)/60)
}

func parseFixedZone(name string) (*time.Location, error) {
	rest, ok := strings.CutPrefix(name, "UTC")
	if !ok {
		return nil, fmt.Errorf("settings: unknown timezone %q", name)
	}
	if rest == "" {
		return time.UTC, nil
	}

	sign := 1
	switch rest[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("settings: unknown timezone %q", name)
	}

	hh, mm, ok := strings.Cut(rest[1:], ":")
	if !ok {
		return nil, fmt.Errorf("settings: unknown timezone %q", name)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return nil, fmt.Errorf("settings: unknown timezone %q", name)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return nil, fmt.Errorf("settings: unknown timezone %q", name)
	}

	offset := sign * (hours*3600 + minutes*60)
	return time.FixedZone(name, offset), nil
}
