package db

import (
	"context"
	"time"

	"open_poll_bot/configs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DB wraps the mongo database and exposes the five poll collections.
type DB struct {
	client *mongo.Client

	Polls    *mongo.Collection
	Votes    *mongo.Collection
	Closed   *mongo.Collection
	Hidden   *mongo.Collection
	Schedule *mongo.Collection
}

func StartDB(config configs.DB, logger *zap.SugaredLogger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URL))
	if err != nil {
		logger.Errorw("failed to connect to mongo", "error", err)
		return nil, err
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Errorw("failed to ping mongo", "error", err)
		return nil, err
	}

	database := client.Database(config.Name)

	return &DB{
		client:   client,
		Polls:    database.Collection("polls"),
		Votes:    database.Collection("votes"),
		Closed:   database.Collection("closed"),
		Hidden:   database.Collection("hidden"),
		Schedule: database.Collection("schedule"),
	}, nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
