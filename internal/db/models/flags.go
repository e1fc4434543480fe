package models

// ClosedFlag and HiddenFlag are independent booleans per poll instance,
// created lazily on the first action that needs them.

type ClosedFlag struct {
	Team    string `bson:"team" json:"team"`
	Channel string `bson:"channel" json:"channel"`
	TS      string `bson:"ts" json:"ts"`
	Closed  bool   `bson:"closed" json:"closed"`
}

type HiddenFlag struct {
	Team    string `bson:"team" json:"team"`
	Channel string `bson:"channel" json:"channel"`
	TS      string `bson:"ts" json:"ts"`
	Hidden  bool   `bson:"hidden" json:"hidden"`
}

// Flags bundles both visibility booleans for rendering.
type Flags struct {
	Closed bool
	Hidden bool
}
