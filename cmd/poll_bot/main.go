package main

import (
	"open_poll_bot/configs"
	"open_poll_bot/internal/db"
	"open_poll_bot/internal/db/repositories"
	"open_poll_bot/internal/di"
	"open_poll_bot/internal/guard"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/poll"
	"open_poll_bot/internal/render"
	"open_poll_bot/internal/slack_bot"

	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()

	logger.Info("loading config")
	config, err := configs.LoadPollBotConfig()
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

	pollRepository := repositories.NewPollRepository(database.Polls)
	voteRepository := repositories.NewVoteRepository(database.Votes)
	closedRepository := repositories.NewClosedRepository(database.Closed)
	hiddenRepository := repositories.NewHiddenRepository(database.Hidden)
	scheduleTaskRepository := repositories.NewScheduleTaskRepository(database.Schedule)

	renderer := render.New(config.Slack.HelpLink)
	client := platform.NewSlackClient(config.Slack.BotToken)

	engine := poll.NewEngine(
		pollRepository,
		voteRepository,
		closedRepository,
		hiddenRepository,
		guard.New(config.Guard.AttemptTimeout),
		renderer,
		logger,
	)

	bot := slack_bot.NewBot(
		config.Slack,
		slack_bot.NewCommandHandler(
			config.Scheduler,
			engine,
			pollRepository,
			scheduleTaskRepository,
			client,
			config.Slack.HelpLink,
			logger,
		),
		slack_bot.NewActionHandler(engine, client, logger),
		logger,
	)

	logger.Info("starting bot")
	if err = bot.Start(); err != nil {
		logger.Fatalw("bot stopped", "error", err)
	}
}
