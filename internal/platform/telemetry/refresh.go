package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// BedCountFunc reports the number of registered and occupied beds.
type BedCountFunc func(ctx context.Context) (total, occupied int, err error)

// RefreshBeds runs count once and updates the bed gauges. Gauges keep their
// previous value when count fails.
func (m *Metrics) RefreshBeds(ctx context.Context, count BedCountFunc) error {
	total, occupied, err := count(ctx)
	if err != nil {
		return err
	}
	m.SetBeds(total, occupied)
	return nil
}

// ScheduleBedRefresh registers a job on s that refreshes the bed gauges every
// interval, starting immediately. Runs never overlap.
func (m *Metrics) ScheduleBedRefresh(s gocron.Scheduler, interval time.Duration, count BedCountFunc, logger zerolog.Logger) (gocron.Job, error) {
	job, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := m.RefreshBeds(ctx, count); err != nil {
				logger.Warn().Err(err).Msg("bed gauge refresh failed")
			}
		}),
		gocron.WithName("bed-gauges"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule bed refresh: %w", err)
	}
	return job, nil
}
