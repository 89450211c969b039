package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/cirrus/internal/settings"
	"github.com/neexbeast/cirrus/internal/weather"
)

// observationSource is the interface satisfied by weather.Service.
type observationSource interface {
	Current(ctx context.Context, city string) (weather.Observation, error)
}

// astronomySource is the interface satisfied by weather.Service.
type astronomySource interface {
	PictureOfDay(ctx context.Context) (weather.APOD, error)
}

// Generator acquires the external data for a station and assembles a report.
type Generator struct {
	weather   observationSource
	astronomy astronomySource
	now       func() time.Time
	log       *slog.Logger
}

// NewGenerator constructs a Generator over the cached weather service.
func NewGenerator(w observationSource, a astronomySource, log *slog.Logger) *Generator {
	return NewGeneratorWithClock(w, a, time.Now, log)
}

// NewGeneratorWithClock constructs a Generator with an injectable clock (used in tests).
func NewGeneratorWithClock(w observationSource, a astronomySource, now func() time.Time, log *slog.Logger) *Generator {
	return &Generator{weather: w, astronomy: a, now: now, log: log}
}

// Generate fetches the station's observation and, when includeAstronomy is
// set, the astronomy picture, in parallel. The observation is required; an
// astronomy failure degrades the report instead of failing it.
func (g *Generator) Generate(ctx context.Context, st settings.Station, includeAstronomy bool) (*Report, error) {
	eg, egCtx := errgroup.WithContext(ctx)

	var obs weather.Observation
	var pic *weather.APOD

	eg.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				g.log.Error("observation fetch panicked", "recover", r)
				err = fmt.Errorf("observation fetch panicked: %v", r)
			}
		}()
		o, fetchErr := g.weather.Current(egCtx, st.City)
		if fetchErr != nil {
			return fmt.Errorf("fetching observation for %s: %w", st.City, fetchErr)
		}
		obs = o
		return nil
	})

	if includeAstronomy {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					g.log.Error("astronomy fetch panicked", "recover", r)
					err = fmt.Errorf("astronomy fetch panicked: %v", r)
				}
			}()
			p, fetchErr := g.astronomy.PictureOfDay(egCtx)
			if fetchErr != nil {
				g.log.Warn("astronomy fetch failed", "err", fetchErr)
				return nil
			}
			pic = &p
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	rep, err := Assemble(st, obs, g.now())
	if err != nil {
		return nil, err
	}
	rep.Astronomy = pic
	return rep, nil
}
