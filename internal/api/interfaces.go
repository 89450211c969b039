package api

import (
	"context"
	"time"

	"github.com/neexbeast/cirrus/internal/report"
	"github.com/neexbeast/cirrus/internal/settings"
	"github.com/neexbeast/cirrus/internal/weather"
)

// StationStore defines the settings operations needed by handlers.
type StationStore interface {
	Get(userID int64) (settings.Station, error)
	Set(ctx context.Context, userID int64, st settings.Station) error
	Update(ctx context.Context, userID int64, upd settings.Update) (settings.Station, error)
	Count() int
}

// WeatherSource defines the observation lookups needed by handlers.
type WeatherSource interface {
	Current(ctx context.Context, city string) (weather.Observation, error)
	PictureOfDay(ctx context.Context) (weather.APOD, error)
}

// ReportGenerator assembles a full station report.
type ReportGenerator interface {
	Generate(ctx context.Context, st settings.Station, includeAstronomy bool) (*report.Report, error)
}

// CooldownLimiter gates repeated calls to expensive endpoints.
type CooldownLimiter interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Pinger reports connectivity of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}
