package main

import (
	"context"
	"time"

	"open_poll_bot/configs"
	"open_poll_bot/internal/db"
	"open_poll_bot/internal/db/repositories"
	"open_poll_bot/internal/di"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/render"
	"open_poll_bot/internal/scheduler"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

func main() {
	s := gocron.NewScheduler(time.UTC)

	logger := zap.Must(zap.NewProduction()).Sugar()

	logger.Info("loading config")
	config, err := configs.LoadScheduleServiceConfig()
	if err != nil {
		logger.Fatalw("failed to load config", "error", err)
	}
	logger = di.NewLogger(config.Logger)
	logger.Info("config loaded")

	logger.Info("starting db")
	database, err := db.StartDB(config.DB, logger)
	if err != nil {
		logger.Fatalw("failed to start db", "error", err)
	}
	logger.Info("db started")

	engine := scheduler.NewEngine(
		repositories.NewScheduleTaskRepository(database.Schedule),
		repositories.NewPollRepository(database.Polls),
		platform.NewSlackClient(config.Slack.BotToken),
		render.New(config.Slack.HelpLink),
		config.Scheduler,
		nil,
		logger,
	)

	s.Every(1).Minute().Do(func() {
		engine.Tick(context.Background())
	})

	s.Cron("30 3 * * *").Do(func() {
		engine.Cleanup(context.Background())
	})

	logger.Info("starting scheduler")
	s.StartBlocking()
}
