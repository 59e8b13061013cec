package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"context-reminder/internal/bot"
	"context-reminder/internal/config"
	"context-reminder/internal/logging"
	"context-reminder/internal/repository"
	"context-reminder/internal/service"
)

func main() {
	configPath := flag.String("config", envOr("REMINDER_CONFIG", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := repository.NewDB(cfg.Database.URL, logging.Gorm(logger))
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	reminderSvc := service.NewReminderService(reminderRepo, cfg.Location())

	telegramBot, err := bot.New(cfg.Telegram, userRepo, reminderSvc, logger)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(cfg.Location(), logger)
	if err := scheduleJobs(ctx, cfg, scheduler, telegramBot, logger); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("context reminder bot started", "timezone", cfg.Location().String(), "jobs", len(scheduler.Entries()))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func scheduleJobs(ctx context.Context, cfg *config.Config, scheduler *service.SchedulerService, telegramBot *bot.Bot, logger *slog.Logger) error {
	reports := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("report", "error", err)
		}
	}

	switch {
	case cfg.Report.DailyAt != "":
		if _, err := scheduler.ScheduleDaily("report", cfg.Report.DailyAt, reports); err != nil {
			return err
		}
	case cfg.ReportInterval() > 0:
		if _, err := scheduler.ScheduleInterval("report", cfg.ReportInterval(), reports); err != nil {
			return err
		}
	}

	if cfg.Notify.Enabled {
		if _, err := scheduler.ScheduleInterval("due", cfg.NotifyInterval(), func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDueNotifications(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("due notifications", "error", err)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
