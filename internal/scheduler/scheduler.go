package scheduler

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper expires holds whose deadline has passed.
type Sweeper interface {
	SweepExpiredHolds(ctx context.Context, now time.Time) (int, error)
}

// Backuper snapshots the database.
type Backuper interface {
	Run(ctx context.Context) error
}

// Scheduler runs the periodic maintenance jobs of the service.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	backup  Backuper
	timeout time.Duration
	logger  *zerolog.Logger
	now     func() time.Time
}

// New registers the hold sweep and, when backup is non-nil and enabled in cfg,
// the database backup.
func New(cfg *config.Config, sweeper Sweeper, backup Backuper, logger *zerolog.Logger) (*Scheduler, error) {
	// UTC и точность до секунд
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		backup:  backup,
		timeout: cfg.Booking.SweepLockTTL,
		logger:  logger,
		now:     time.Now,
	}

	if _, err := c.AddFunc(cfg.Booking.SweepSchedule, s.sweep); err != nil {
		return nil, fmt.Errorf("register sweep job %q: %w", cfg.Booking.SweepSchedule, err)
	}

	if backup != nil && cfg.Backup.Enabled {
		if _, err := c.AddFunc(cfg.Backup.Schedule, s.runBackup); err != nil {
			return nil, fmt.Errorf("register backup job %q: %w", cfg.Backup.Schedule, err)
		}
	}

	logger.Info().Int("jobs", len(c.Entries())).Msg("Cron jobs registered")
	return s, nil
}

func (s *Scheduler) sweep() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	n, err := s.sweeper.SweepExpiredHolds(ctx, start)
	if err != nil {
		s.logger.Error().Err(err).Msg("Expired holds sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Dur("took", time.Since(start)).Msg("Expired holds swept")
	}
}

func (s *Scheduler) runBackup() {
	if err := s.backup.Run(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled backup failed")
	}
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Cron scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Cron scheduler stopped")
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
