package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"open_poll_bot/internal/db/models"
)

type closedRepository struct {
	repository
}

type ClosedRepository interface {
	// Get returns false for instances without a flag document; the flag
	// is only materialized by Set.
	Get(ctx context.Context, instance models.Instance) (bool, error)
	Set(ctx context.Context, instance models.Instance, closed bool) error
	Delete(ctx context.Context, instance models.Instance) error
}

func NewClosedRepository(collection *mongo.Collection) ClosedRepository {
	return &closedRepository{
		repository: repository{
			collection: collection,
		},
	}
}

func (r *closedRepository) Get(ctx context.Context, instance models.Instance) (bool, error) {
	flag := &models.ClosedFlag{}

	err := r.collection.FindOne(ctx, instanceFilter(instance)).Decode(flag)
	if err == mongo.ErrNoDocuments {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return flag.Closed, nil
}

func (r *closedRepository) Set(ctx context.Context, instance models.Instance, closed bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		instanceFilter(instance),
		bson.M{"$set": bson.M{"team": instance.Team, "closed": closed}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *closedRepository) Delete(ctx context.Context, instance models.Instance) error {
	_, err := r.collection.DeleteMany(ctx, instanceFilter(instance))
	return err
}
