package configs

import "time"

type Scheduler struct {
	// Computed next occurrences closer than this gap trigger the
	// too-frequent warning cycle.
	MinGapHours float64 `env:"SCHEDULE_MIN_GAP_HOURS" envDefault:"1"`

	// Hard budget of successful posts per task.
	MaxRuns int `env:"SCHEDULE_MAX_RUNS" envDefault:"100"`

	// Disabled tasks older than this are purged by the daily cleanup.
	CleanupRetentionDays int `env:"SCHEDULE_CLEANUP_RETENTION_DAYS" envDefault:"30"`
}

func (c Scheduler) MinGap() time.Duration {
	return time.Duration(c.MinGapHours * float64(time.Hour))
}

func (c Scheduler) CleanupRetention() time.Duration {
	return time.Duration(c.CleanupRetentionDays) * 24 * time.Hour
}
