package weather

import (
	"context"
	"time"

	"github.com/neexbeast/cirrus/internal/cache"
)

// TTLs per data kind. Observations go stale quickly; the astronomy picture
// changes once a day.
const (
	observationTTL = 5 * time.Minute
	apodTTL        = 12 * time.Hour
)

// apodKey is the single cache key for the astronomy picture. One upstream
// resource serves every user, so the cached entry is shared deliberately.
const apodKey = "apod"

// observationFetcher is the interface satisfied by Client.
type observationFetcher interface {
	Fetch(ctx context.Context, city string) (*Observation, error)
}

// apodFetcher is the interface satisfied by APODClient.
type apodFetcher interface {
	Fetch(ctx context.Context) (*APOD, error)
}

// Service fronts the two remote sources with cache-aside lookups.
type Service struct {
	weather observationFetcher
	nasa    apodFetcher

	observations *cache.Cache[Observation]
	pictures     *cache.Cache[APOD]
}

// NewService constructs a Service over the production clients.
func NewService(weatherClient *Client, nasaClient *APODClient) *Service {
	return NewServiceWithClients(weatherClient, nasaClient, time.Now)
}

// NewServiceWithClients constructs a Service with injectable fetchers and
// clock (used in tests).
func NewServiceWithClients(w observationFetcher, a apodFetcher, clock cache.Clock) *Service {
	return &Service{
		weather:      w,
		nasa:         a,
		observations: cache.NewWithClock[Observation](observationTTL, clock),
		pictures:     cache.NewWithClock[APOD](apodTTL, clock),
	}
}

// Current returns the current observation for the given place name, from
// cache when fresh enough.
func (s *Service) Current(ctx context.Context, city string) (Observation, error) {
	return s.observations.Lookup(ctx, city, func(ctx context.Context) (Observation, error) {
		obs, err := s.weather.Fetch(ctx, city)
		if err != nil {
			return Observation{}, err
		}
		return *obs, nil
	})
}

// PictureOfDay returns the astronomy picture, from cache when fresh enough.
func (s *Service) PictureOfDay(ctx context.Context) (APOD, error) {
	return s.pictures.Lookup(ctx, apodKey, func(ctx context.Context) (APOD, error) {
		pic, err := s.nasa.Fetch(ctx)
		if err != nil {
			return APOD{}, err
		}
		return *pic, nil
	})
}
