package models

import "time"

// Poll is the write-once-mostly definition of a poll: its question, options
// and configuration flags. Options may be appended by the add-choice path,
// never removed.
type Poll struct {
	ID            string    `bson:"_id" json:"id"`
	Team          string    `bson:"team" json:"team"`
	Channel       string    `bson:"channel" json:"channel"`
	CreatedUserID string    `bson:"created_user_id" json:"created_user_id"`
	Question      string    `bson:"question" json:"question"`
	Options       []string  `bson:"options" json:"options"`
	Anonymous     bool      `bson:"anonymous" json:"anonymous"`
	Limited       bool      `bson:"limited" json:"limited"`
	Limit         int       `bson:"limit" json:"limit"`
	Hidden        bool      `bson:"hidden" json:"hidden"`
	AddChoice     bool      `bson:"add_choice" json:"add_choice"`
	MenuAtEnd     bool      `bson:"menu_at_end" json:"menu_at_end"`
	CreatedCmd    string    `bson:"created_cmd" json:"created_cmd"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
