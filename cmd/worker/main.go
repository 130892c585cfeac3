package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/barber-saas/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-saas/internal/db"
	"github.com/BruksfildServices01/barber-saas/internal/infra/realtime"
	infraRepo "github.com/BruksfildServices01/barber-saas/internal/infra/repository"
	"github.com/BruksfildServices01/barber-saas/internal/logger"
	"github.com/BruksfildServices01/barber-saas/internal/notify"
	"github.com/BruksfildServices01/barber-saas/internal/usecase/reminders"
)

// The worker runs the scheduled jobs. Start a single instance.
func main() {

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	db := dbpkg.NewDB(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events realtime.Publisher = realtime.Nop{}
	if cfg.RedisURL != "" {
		if rdb, err := realtime.NewRedisClient(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, reminder events disabled")
		} else {
			defer rdb.Close()
			events = realtime.NewBroker(rdb)
		}
	}

	sendReminders := reminders.NewSendReminders(
		infraRepo.NewReminderGormRepository(db),
		notify.NewEmailSenderFromConfig(cfg),
		events,
	)

	cronLog := logger.NewCronLogger(log.Logger)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	_, err := c.AddFunc(cfg.ReminderCron, func() {
		jobLogger := log.With().Str("job", "send-appointment-reminders").Logger()
		report, err := sendReminders.Execute(jobLogger.WithContext(ctx))
		if err != nil {
			jobLogger.Error().Err(err).Msg("job failed")
			return
		}
		jobLogger.Info().
			Int("tenants", report.Tenants).
			Int("reminded", report.Reminded).
			Int("emailed", report.Emailed).
			Int("email_failed", report.EmailFailed).
			Int("failed", report.Failed).
			Int("skipped", report.Skipped).
			Msg("job finished")
	})
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.ReminderCron).Msg("invalid reminder schedule")
	}

	c.Start()
	log.Info().Str("reminder_cron", cfg.ReminderCron).Msg("worker started")

	<-ctx.Done()
	log.Info().Msg("stopping worker")
	<-c.Stop().Done()
}
