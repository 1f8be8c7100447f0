package scheduler

import (
	"context"
	"log/slog"
	"time"
	"ywbilling/internal/config"
	"ywbilling/lib/sl"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

type Core interface {
	MarkOverdue(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	core Core
	conf config.Scheduler
	log  *slog.Logger
}

func New(conf config.Scheduler, core Core, loc *time.Location, log *slog.Logger) *Scheduler {
	logger := log.With(sl.Module("scheduler"))
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		core: core,
		conf: conf,
		log:  logger,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.conf.Overdue, s.overdueJob); err != nil {
		return err
	}
	s.log.With(slog.String("schedule", s.conf.Overdue)).Info("scheduled overdue invoices job")
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to complete
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) overdueJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	count, err := s.core.MarkOverdue(ctx)
	if err != nil {
		s.log.With(
			slog.Int("marked", count),
			sl.Err(err),
		).Error("overdue invoices job")
		return
	}
	if count > 0 {
		s.log.With(slog.Int("marked", count)).Info("overdue invoices job")
	}
}
