package configs

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type PollBotConfig struct {
	App       App
	Slack     Slack
	DB        DB
	Guard     Guard
	Scheduler Scheduler
	Logger    Logger
}

func LoadPollBotConfig() (PollBotConfig, error) {
	var config PollBotConfig

	if err := env.Parse(&config); err != nil {
		return PollBotConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

type ScheduleServiceConfig struct {
	App       App
	Slack     Slack
	DB        DB
	Scheduler Scheduler
	Logger    Logger
}

func LoadScheduleServiceConfig() (ScheduleServiceConfig, error) {
	var config ScheduleServiceConfig

	if err := env.Parse(&config); err != nil {
		return ScheduleServiceConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}
