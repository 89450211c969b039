// Package scheduler runs the daily-report sweep: a fixed-cadence pass over
// every configured station that fires a report when the station's local time
// enters its delivery window.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/neexbeast/cirrus/internal/delivery"
	"github.com/neexbeast/cirrus/internal/report"
	"github.com/neexbeast/cirrus/internal/settings"
)

// The sweep cadence and the local-time match window are coupled: the cadence
// must evenly divide the window. A narrower window risks skipping a delayed
// sweep past it entirely; a wider one risks duplicate sends. Change them
// together or not at all.
const (
	sweepInterval = 5 * time.Minute
	matchWindow   = 5 * time.Minute
)

// perUserTimeout bounds one station's generate-and-deliver so a stalled
// upstream cannot hold the sweep hostage.
const perUserTimeout = 30 * time.Second

// stationLister is the interface satisfied by settings.Store.
type stationLister interface {
	All() map[int64]settings.Station
}

// reportGenerator is the interface satisfied by report.Generator.
type reportGenerator interface {
	Generate(ctx context.Context, st settings.Station, includeAstronomy bool) (*report.Report, error)
}

// reportSender is the interface satisfied by delivery.Client.
type reportSender interface {
	SendReport(ctx context.Context, userID int64, rep *report.Report) error
}

// Scheduler owns the periodic sweep over configured stations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	stations  stationLister
	reports   reportGenerator
	delivery  reportSender
	now       func() time.Time
	log       *slog.Logger
}

// New creates a Scheduler using the wall clock.
func New(stations stationLister, reports reportGenerator, sender reportSender, log *slog.Logger) *Scheduler {
	return NewWithClock(stations, reports, sender, time.Now, log)
}

// NewWithClock creates a Scheduler with an injectable clock (used in tests).
func NewWithClock(stations stationLister, reports reportGenerator, sender reportSender, now func() time.Time, log *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		stations:  stations,
		reports:   reports,
		delivery:  sender,
		now:       now,
		log:       log,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(int(sweepInterval.Minutes())).Minutes().Do(s.Sweep)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("report scheduler started", "interval", sweepInterval.String())
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Sweep evaluates every configured station once. Failures are isolated per
// user: a bad timezone, a dead upstream, or a refused delivery never stops
// the rest of the pass. Stations iterate over a snapshot; settings changed
// mid-sweep are picked up next time.
func (s *Scheduler) Sweep() {
	now := s.now()
	stations := s.stations.All()
	s.log.Debug("report sweep", "stations", len(stations))

	for userID, st := range stations {
		due, err := dueNow(st, now)
		if err != nil {
			// Skipped this cycle, retried on the next one.
			s.log.Warn("timezone resolution failed", "user", userID, "tz", st.Timezone, "err", err)
			continue
		}
		if !due {
			continue
		}
		s.deliver(userID, st)
	}
}

// dueNow reports whether the station's local time is inside its delivery
// window: the configured hour, first matchWindow minutes.
func dueNow(st settings.Station, now time.Time) (bool, error) {
	loc, err := st.Location()
	if err != nil {
		return false, err
	}
	local := now.In(loc)
	return local.Hour() == st.ReportHour && local.Minute() < int(matchWindow.Minutes()), nil
}

func (s *Scheduler) deliver(userID int64, st settings.Station) {
	ctx, cancel := context.WithTimeout(context.Background(), perUserTimeout)
	defer cancel()

	rep, err := s.reports.Generate(ctx, st, true)
	if err != nil {
		s.log.Error("daily report generation failed", "user", userID, "city", st.City, "err", err)
		return
	}

	if err := s.delivery.SendReport(ctx, userID, rep); err != nil {
		if errors.Is(err, delivery.ErrForbidden) {
			s.log.Warn("daily report refused, direct messages disabled", "user", userID)
			return
		}
		s.log.Error("daily report delivery failed", "user", userID, "err", err)
		return
	}

	s.log.Info("daily report sent", "user", userID, "city", st.City)
}
