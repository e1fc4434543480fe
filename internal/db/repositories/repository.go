package repositories

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"open_poll_bot/internal/db/models"
)

type repository struct {
	collection *mongo.Collection
}

// instanceFilter matches one poll instance document.
func instanceFilter(instance models.Instance) bson.M {
	return bson.M{
		"channel": instance.Channel,
		"ts":      instance.TS,
	}
}
