package scheduler

import (
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

var ErrInvalidCron = errors.New("invalid cron expression")

// ParseCron parses a standard 5-field cron expression. A CRON_TZ= prefix
// selects the zone, otherwise occurrences are computed in UTC. Expressions
// are validated here at schedule-creation time; a parse failure at tick
// time therefore means the stored task is corrupt.
func ParseCron(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCron, err.Error())
	}
	return schedule, nil
}
