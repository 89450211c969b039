package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/neexbeast/cirrus/internal/meteo"
	"github.com/neexbeast/cirrus/internal/settings"
	"github.com/neexbeast/cirrus/internal/weather"
)

// atmosphereCooldown limits how often a single user can request a live
// atmosphere readout.
const atmosphereCooldown = 30 * time.Second

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	stations  StationStore
	weather   WeatherSource
	reports   ReportGenerator
	cooldowns CooldownLimiter
	validate  *validator.Validate
	log       *slog.Logger
}

// NewHandlers constructs Handlers. cooldowns may be nil, in which case
// the atmosphere endpoint is not rate limited per user.
func NewHandlers(stations StationStore, weatherSrc WeatherSource, reports ReportGenerator, cooldowns CooldownLimiter, log *slog.Logger) *Handlers {
	return &Handlers{
		stations:  stations,
		weather:   weatherSrc,
		reports:   reports,
		cooldowns: cooldowns,
		validate:  validator.New(),
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

type registerRequest struct {
	City     string `json:"city" validate:"required,min=1,max=100"`
	Timezone string `json:"timezone" validate:"omitempty,max=64"`
}

// RegisterStation handles PUT /api/v1/stations/{userID}.
// The city is resolved against the weather provider before anything is
// stored, so a station always points at a real place. Re-registering
// keeps the user's existing unit and report hour.
func (h *Handlers) RegisterStation(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "city is required and must be at most 100 characters")
		return
	}

	obs, err := h.weather.Current(r.Context(), req.City)
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			writeError(w, http.StatusNotFound, "city not found")
			return
		}
		h.log.Error("register: weather lookup failed", "city", req.City, "err", err)
		writeError(w, http.StatusBadGateway, "weather service unavailable")
		return
	}

	tz := req.Timezone
	if tz == "" {
		tz = settings.ZoneNameForOffset(obs.UTCOffset)
	}

	st := settings.Station{
		City:       obs.City,
		Country:    obs.Country,
		Lat:        obs.Lat,
		Lon:        obs.Lon,
		Timezone:   tz,
		TempUnit:   settings.DefaultUnit,
		ReportHour: settings.DefaultReportHour,
	}
	if existing, err := h.stations.Get(userID); err == nil {
		st.TempUnit = existing.TempUnit
		st.ReportHour = existing.ReportHour
	}
	if _, err := st.Location(); err != nil {
		writeError(w, http.StatusBadRequest, "unknown timezone")
		return
	}

	if err := h.stations.Set(r.Context(), userID, st); err != nil {
		h.log.Error("register: store failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store station")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// GetStation handles GET /api/v1/stations/{userID}.
func (h *Handlers) GetStation(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	st, err := h.stations.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "station not registered")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

type settingsRequest struct {
	TemperatureUnit *string `json:"temperature_unit" validate:"omitempty,oneof=celsius fahrenheit kelvin"`
	ReportHour      *int    `json:"report_hour" validate:"omitempty,min=0,max=23"`
}

// UpdateSettings handles PATCH /api/v1/stations/{userID}/settings.
// Only the fields present in the body change.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "temperature_unit must be celsius, fahrenheit or kelvin; report_hour must be 0-23")
		return
	}

	var upd settings.Update
	if req.TemperatureUnit != nil {
		unit, err := meteo.ParseUnit(*req.TemperatureUnit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown temperature unit")
			return
		}
		upd.TempUnit = &unit
	}
	upd.ReportHour = req.ReportHour

	st, err := h.stations.Update(r.Context(), userID, upd)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			writeError(w, http.StatusNotFound, "station not registered")
			return
		}
		h.log.Error("settings update failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// Atmosphere handles GET /api/v1/stations/{userID}/atmosphere.
// A per-user cooldown keeps heavy upstream traffic in check; if the
// cooldown backend is unreachable the request is allowed through.
func (h *Handlers) Atmosphere(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	st, err := h.stations.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "station not registered")
		return
	}

	if h.cooldowns != nil {
		key := "atmosphere:" + strconv.FormatInt(userID, 10)
		ok, err := h.cooldowns.Allow(r.Context(), key, atmosphereCooldown)
		if err != nil {
			h.log.Warn("cooldown check failed, allowing request", "user_id", userID, "err", err)
		} else if !ok {
			writeError(w, http.StatusTooManyRequests, "atmosphere readout on cooldown, try again shortly")
			return
		}
	}

	rep, err := h.reports.Generate(r.Context(), st, false)
	if err != nil {
		h.log.Error("atmosphere report failed", "user_id", userID, "city", st.City, "err", err)
		writeError(w, http.StatusBadGateway, "weather service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// APOD handles GET /api/v1/apod.
func (h *Handlers) APOD(w http.ResponseWriter, r *http.Request) {
	pic, err := h.weather.PictureOfDay(r.Context())
	if err != nil {
		h.log.Error("apod fetch failed", "err", err)
		writeError(w, http.StatusBadGateway, "astronomy service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, pic)
}

// Root handles GET /. Uptime monitors hit this to keep the process warm.
func Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("weather station is running\n"))
}

// HealthHandlerFunc returns an http.HandlerFunc reporting station count
// and backing-service connectivity. Either pinger may be nil when that
// backend is not configured.
func HealthHandlerFunc(stations StationStore, db, redis Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK

		check := func(name string, p Pinger) string {
			if p == nil {
				return "disabled"
			}
			if err := p.Ping(ctx); err != nil {
				log.Error("health check: ping failed", "service", name, "err", err)
				status = http.StatusServiceUnavailable
				return "error"
			}
			return "ok"
		}

		dbStatus := check("db", db)
		redisStatus := check("redis", redis)

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]any{
			"status":   overall,
			"db":       dbStatus,
			"redis":    redisStatus,
			"stations": stations.Count(),
		})
	}
}
