package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

const httpTimeout = 10 * time.Second

// ErrNotFound indicates the remote source has no data for the requested place.
var ErrNotFound = errors.New("weather: place not found")

// errNotFoundStatus marks a 404 inside a breaker execution. A missing place
// is a caller mistake, not a provider failure, so it must not trip the
// breaker the way real failures do.
var errNotFoundStatus = errors.New("not found status")

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// newBreaker builds a circuit breaker that trips after at least 3 requests
// with a failure ratio of 0.6 or higher. State transitions are logged.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// doGet performs a GET request through the circuit breaker and decodes the
// JSON response into dst. A 404 response returns ErrNotFound without
// counting as a breaker failure.
func doGet(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, rawURL string, dst any) error {
	_, err := cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFoundStatus
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return nil, fmt.Errorf("decoding response from %s: %w", rawURL, err)
		}

		return nil, nil
	})
	if errors.Is(err, errNotFoundStatus) {
		return ErrNotFound
	}
	return err
}

// ---- OpenWeatherMap ----

// Client fetches current weather observations from OpenWeatherMap.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

const owmDefaultURL = "https://api.openweathermap.org/data/2.5/weather"

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(owmDefaultURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  newHTTPClient(),
		breaker: newBreaker("openweather"),
	}
}

type owmResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility *int `json:"visibility"`
	Coord      struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name     string `json:"name"`
	Timezone int    `json:"timezone"`
}

// Fetch retrieves the current observation for the given place name.
// Returns ErrNotFound when the provider does not know the place.
func (c *Client) Fetch(ctx context.Context, city string) (*Observation, error) {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(city) + "&appid=" + c.apiKey + "&units=metric"

	var raw owmResponse
	if err := doGet(ctx, c.client, c.breaker, endpoint, &raw); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("openweathermap fetch for %s: %w", city, ErrNotFound)
		}
		return nil, fmt.Errorf("openweathermap fetch for %s: %w", city, err)
	}

	description := ""
	conditionID := 0
	if len(raw.Weather) > 0 {
		description = raw.Weather[0].Description
		conditionID = raw.Weather[0].ID
	}

	// The provider omits visibility in some regions; assume unrestricted.
	visibility := 10000
	if raw.Visibility != nil {
		visibility = *raw.Visibility
	}

	return &Observation{
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		Pressure:    raw.Main.Pressure,
		Humidity:    raw.Main.Humidity,
		CloudCover:  raw.Clouds.All,
		WindSpeed:   raw.Wind.Speed,
		WindDeg:     raw.Wind.Deg,
		Visibility:  visibility,
		Description: description,
		ConditionID: conditionID,
		Lat:         raw.Coord.Lat,
		Lon:         raw.Coord.Lon,
		City:        raw.Name,
		Country:     raw.Sys.Country,
		UTCOffset:   raw.Timezone,
	}, nil
}

// ---- NASA APOD ----

// APODClient fetches the NASA astronomy picture of the day.
type APODClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

const apodDefaultURL = "https://api.nasa.gov/planetary/apod"

// NewAPODClient constructs an APODClient with the given API key.
func NewAPODClient(apiKey string) *APODClient {
	return NewAPODClientWithURL(apodDefaultURL, apiKey)
}

// NewAPODClientWithURL constructs an APODClient pointing at a custom base URL (for tests).
func NewAPODClientWithURL(baseURL, apiKey string) *APODClient {
	return &APODClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  newHTTPClient(),
		breaker: newBreaker("nasa-apod"),
	}
}

type apodResponse struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Fetch retrieves today's astronomy picture. The picture is global, not
// per-user; there are no per-call parameters.
func (c *APODClient) Fetch(ctx context.Context) (*APOD, error) {
	endpoint := c.baseURL + "?api_key=" + url.QueryEscape(c.apiKey)

	var raw apodResponse
	if err := doGet(ctx, c.client, c.breaker, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("nasa apod fetch: %w", err)
	}

	title := raw.Title
	if title == "" {
		title = "NASA Sky Image"
	}

	return &APOD{
		URL:         raw.URL,
		Title:       title,
		Explanation: raw.Explanation,
	}, nil
}
