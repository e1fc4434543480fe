package models

import "fmt"

// Instance identifies one posted occurrence of a poll. The same poll
// definition may be re-posted by the scheduler as several instances.
type Instance struct {
	Team    string `bson:"team" json:"team"`
	Channel string `bson:"channel" json:"channel"`
	TS      string `bson:"ts" json:"ts"`
}

func (i Instance) Key() string {
	return fmt.Sprintf("%s/%s/%s", i.Team, i.Channel, i.TS)
}
