package meteo

import (
	"errors"
	"fmt"
	"math"
)

// Unit is a temperature display unit.
type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitFahrenheit Unit = "fahrenheit"
	UnitKelvin     Unit = "kelvin"
)

// ErrInvalidUnit is returned for a unit outside the three supported values.
var ErrInvalidUnit = errors.New("meteo: invalid temperature unit")

// ParseUnit validates s as one of the supported units.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitCelsius, UnitFahrenheit, UnitKelvin:
		return Unit(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// ConvertTemperature converts a temperature in Celsius to the given unit,
// rounded to 1 decimal, and returns the unit symbol alongside the value.
func ConvertTemperature(celsius float64, unit Unit) (float64, string, error) {
	switch unit {
	case UnitCelsius:
		return round1(celsius), "°C", nil
	case UnitFahrenheit:
		return round1(celsius*9/5 + 32), "°F", nil
	case UnitKelvin:
		return round1(celsius + kelvinOffset), "K", nil
	}
	return 0, "", fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection maps a wind direction in degrees to one of the 16
// compass points. Sectors are 22.5° wide and centered on each point, so
// 354° wraps back around to N.
func CardinalDirection(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// VisibilityCategory buckets visibility in meters into WMO-style bands.
// Below 1000 m the literal distance is reported.
func VisibilityCategory(meters int) string {
	switch {
	case meters >= 10000:
		return "Excellent (>10km)"
	case meters >= 5000:
		return "Good (5-10km)"
	case meters >= 2000:
		return "Moderate (2-5km)"
	case meters >= 1000:
		return "Poor (1-2km)"
	}
	return fmt.Sprintf("Very Poor (%dm)", meters)
}

// CloudCover is a WMO okta-scale cloud classification.
type CloudCover struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Oktas       int    `json:"oktas"`
}

var cloudScale = [9]CloudCover{
	{Code: "SKC", Description: "Sky Clear - No cloud coverage detected", Oktas: 0},
	{Code: "FEW", Description: "Few clouds - Cumulus humilis or fractus", Oktas: 1},
	{Code: "FEW", Description: "Few clouds - Isolated cumulus development", Oktas: 2},
	{Code: "SCT", Description: "Scattered - Cumulus mediocris formation", Oktas: 3},
	{Code: "SCT", Description: "Scattered - Multiple cumulus or stratocumulus", Oktas: 4},
	{Code: "BKN", Description: "Broken - Extensive stratocumulus or altocumulus", Oktas: 5},
	{Code: "BKN", Description: "Broken - Altostratus or nimbostratus forming", Oktas: 6},
	{Code: "BKN", Description: "Broken - Pre-overcast conditions", Oktas: 7},
	{Code: "OVC", Description: "Overcast - Complete cloud coverage (nimbostratus/stratus)", Oktas: 8},
}

// ClassifyClouds converts a cloud coverage percentage to oktas (eighths of
// sky covered) and the matching classification entry. Values that round
// outside 0..8 clamp to the overcast entry.
func ClassifyClouds(coveragePct float64) CloudCover {
	oktas := int(math.Round(coveragePct / 12.5))
	if oktas < 0 || oktas > 8 {
		return cloudScale[8]
	}
	return cloudScale[oktas]
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
