package meteo

import "math"

// Physical constants used by the derivations.
const (
	vaporPressureBase     = 6.112  // hPa
	vaporPressureCoeff    = 17.67
	vaporPressureTempBase = 243.5  // °C
	gasConstantDryAir     = 287.05 // J/(kg·K)
	kelvinOffset          = 273.15

	// seaLevelDensity is the fallback for degenerate air density input.
	seaLevelDensity = 1.225 // kg/m³
)

// Dewpoint computes the dewpoint in °C from temperature (°C) and relative
// humidity (%) using the Magnus-Tetens approximation, rounded to 2 decimals.
// Degenerate input (humidity <= 0, or a vanishing denominator) returns 0.
func Dewpoint(tempC, humidity float64) float64 {
	if humidity <= 0 {
		return 0
	}
	alpha := (vaporPressureCoeff*tempC)/(vaporPressureTempBase+tempC) + math.Log(humidity/100)
	dewpoint := (vaporPressureTempBase * alpha) / (vaporPressureCoeff - alpha)
	if math.IsNaN(dewpoint) || math.IsInf(dewpoint, 0) {
		return 0
	}
	return round2(dewpoint)
}

// HeatIndex computes the apparent temperature in °C using the NWS Rothfusz
// regression. The regression is only defined at or above 80°F; below that the
// input temperature is returned unchanged.
func HeatIndex(tempC, humidity float64) float64 {
	tempF := tempC*9/5 + 32
	if tempF < 80 {
		return tempC
	}

	hi := -42.379 + 2.04901523*tempF + 10.14333127*humidity
	hi -= 0.22475541 * tempF * humidity
	hi -= 0.00683783 * tempF * tempF
	hi -= 0.05481717 * humidity * humidity
	hi += 0.00122874 * tempF * tempF * humidity
	hi += 0.00085282 * tempF * humidity * humidity
	hi -= 0.00000199 * tempF * tempF * humidity * humidity

	hiC := (hi - 32) * 5 / 9
	if math.IsNaN(hiC) || math.IsInf(hiC, 0) {
		return tempC
	}
	return round2(hiC)
}

// AirDensity computes air density in kg/m³ from temperature (°C), station
// pressure (hPa) and relative humidity (%) via the ideal gas law with a
// water-vapor partial-pressure correction, rounded to 4 decimals. Degenerate
// input returns the sea-level standard 1.225.
func AirDensity(tempC, pressureHPa, humidity float64) float64 {
	tempK := tempC + kelvinOffset

	es := vaporPressureBase * math.Exp((vaporPressureCoeff*tempC)/(tempC+vaporPressureTempBase))
	e := (humidity / 100) * es
	pd := (pressureHPa * 100) - (e * 100)
	density := pd / (gasConstantDryAir * tempK)

	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return seaLevelDensity
	}
	return round4(density)
}

// CloudBaseHeight estimates the cloud base in meters AGL from the
// temperature-dewpoint spread using the simplified Hennig formula
// height = 125 * (T - Td), truncated to an integer. Returns 0 when the
// spread is not a finite number.
func CloudBaseHeight(tempC, dewpoint float64) int {
	height := 125 * (tempC - dewpoint)
	if math.IsNaN(height) || math.IsInf(height, 0) {
		return 0
	}
	return int(height)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
