package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"open_poll_bot/internal/db/models"
)

type pollRepository struct {
	repository
}

type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	GetOne(ctx context.Context, pollID string) (*models.Poll, error)
	AppendOption(ctx context.Context, pollID, option string) (*models.Poll, error)
	Delete(ctx context.Context, pollID string) error
}

func NewPollRepository(collection *mongo.Collection) PollRepository {
	return &pollRepository{
		repository: repository{
			collection: collection,
		},
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *models.Poll) error {
	_, err := r.collection.InsertOne(ctx, poll)
	return err
}

// GetOne returns nil without error when the poll does not exist.
func (r *pollRepository) GetOne(ctx context.Context, pollID string) (*models.Poll, error) {
	poll := &models.Poll{}

	err := r.collection.FindOne(ctx, bson.M{"_id": pollID}).Decode(poll)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return poll, nil
}

func (r *pollRepository) AppendOption(ctx context.Context, pollID, option string) (*models.Poll, error) {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": pollID},
		bson.M{"$push": bson.M{"options": option}},
	)
	if err != nil {
		return nil, err
	}

	return r.GetOne(ctx, pollID)
}

func (r *pollRepository) Delete(ctx context.Context, pollID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": pollID})
	return err
}
