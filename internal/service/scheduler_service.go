package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"context-reminder/internal/config"
)

// SchedulerService wraps cron-based jobs. A panicking job is logged and
// does not stop the scheduler.
type SchedulerService struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewSchedulerService(loc *time.Location, logger *slog.Logger) *SchedulerService {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.With("component", "cron").Handler(), slog.LevelError))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	id, err := s.cron.AddFunc(spec, s.wrap(name, job))
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.Info("job scheduled", "job", name, "at", timeStr)
	return id, nil
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), s.wrap(name, job))
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.Info("job scheduled", "job", name, "every", time.Duration(seconds)*time.Second)
	return id, nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries lists the registered jobs.
func (s *SchedulerService) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *SchedulerService) wrap(name string, job func()) func() {
	return func() {
		start := time.Now()
		job()
		s.logger.Debug("job finished", "job", name, "took", time.Since(start))
	}
}

func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := config.ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
