package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"open_poll_bot/internal/db/models"
)

type hiddenRepository struct {
	repository
}

type HiddenRepository interface {
	// GetOrInit returns the stored flag, falling back to the poll's
	// creation-time hidden setting for instances that have never been
	// revealed or hidden. The second return value reports whether the
	// flag document was created on this call.
	GetOrInit(ctx context.Context, instance models.Instance, initial bool) (bool, bool, error)
	Set(ctx context.Context, instance models.Instance, hidden bool) error
	Delete(ctx context.Context, instance models.Instance) error
}

func NewHiddenRepository(collection *mongo.Collection) HiddenRepository {
	return &hiddenRepository{
		repository: repository{
			collection: collection,
		},
	}
}

func (r *hiddenRepository) GetOrInit(ctx context.Context, instance models.Instance, initial bool) (bool, bool, error) {
	flag := &models.HiddenFlag{}

	err := r.collection.FindOne(ctx, instanceFilter(instance)).Decode(flag)
	if err == nil {
		return flag.Hidden, false, nil
	} else if err != mongo.ErrNoDocuments {
		return false, false, err
	}

	flag = &models.HiddenFlag{
		Team:    instance.Team,
		Channel: instance.Channel,
		TS:      instance.TS,
		Hidden:  initial,
	}
	if _, err = r.collection.InsertOne(ctx, flag); err != nil {
		return false, false, err
	}

	return initial, true, nil
}

func (r *hiddenRepository) Set(ctx context.Context, instance models.Instance, hidden bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		instanceFilter(instance),
		bson.M{"$set": bson.M{"team": instance.Team, "hidden": hidden}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *hiddenRepository) Delete(ctx context.Context, instance models.Instance) error {
	_, err := r.collection.DeleteMany(ctx, instanceFilter(instance))
	return err
}
