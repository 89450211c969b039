package weather

// Observation holds one current-weather reading for a resolved place.
// Immutable once fetched; a fresher fetch supersedes it wholesale.
type Observation struct {
	Temperature float64 `json:"temperature"` // °C
	FeelsLike   float64 `json:"feels_like"`  // °C
	Pressure    float64 `json:"pressure"`    // hPa
	Humidity    float64 `json:"humidity"`    // %
	CloudCover  float64 `json:"cloud_cover"` // %
	WindSpeed   float64 `json:"wind_speed"`  // m/s
	WindDeg     float64 `json:"wind_deg"`    // degrees, 0-359
	Visibility  int     `json:"visibility"`  // meters
	Description string  `json:"description"`
	ConditionID int     `json:"condition_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	Country     string  `json:"country"`

	// UTCOffset is the provider-reported shift from UTC in seconds, used as
	// a timezone fallback when no IANA identifier is supplied.
	UTCOffset int `json:"utc_offset_seconds"`
}

// APOD is the NASA astronomy picture of the day.
type APOD struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}
