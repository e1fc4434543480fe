package models

import "time"

// ScheduleTask is the at-most-one recurring/one-shot posting task per poll.
// Field names are persisted as-is and read by the list/override command
// paths, so they must stay stable.
type ScheduleTask struct {
	PollID        string    `bson:"poll_id" json:"poll_id"`
	NextTS        time.Time `bson:"next_ts" json:"next_ts"`
	CronString    string    `bson:"cron_string" json:"cron_string"`
	RunCounter    int       `bson:"run_counter" json:"run_counter"`
	RunMax        int       `bson:"run_max" json:"run_max"`
	IsEnable      bool      `bson:"is_enable" json:"is_enable"`
	IsDone        bool      `bson:"is_done" json:"is_done"`
	NextTSWarn    bool      `bson:"next_ts_warn" json:"next_ts_warn"`
	PollCh        string    `bson:"poll_ch" json:"poll_ch"`
	CreatedUserID string    `bson:"created_user_id" json:"created_user_id"`
	LastErrorTS   time.Time `bson:"last_error_ts" json:"last_error_ts"`
	LastErrorText string    `bson:"last_error_text" json:"last_error_text"`
}

// Recurring reports whether the task has a cron expression to advance on.
func (t *ScheduleTask) Recurring() bool {
	return t.CronString != ""
}
