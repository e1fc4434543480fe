package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"open_poll_bot/internal/db/models"
)

type voteRepository struct {
	repository
}

type VoteRepository interface {
	// GetOrInit loads the instance's ledger, creating it from the seed
	// voter lists when no document exists yet. The second return value
	// reports whether the ledger was initialized on this call.
	GetOrInit(ctx context.Context, instance models.Instance, seed map[int][]string) (*models.VoteLedger, bool, error)
	Save(ctx context.Context, ledger *models.VoteLedger) error
	Delete(ctx context.Context, instance models.Instance) error
}

func NewVoteRepository(collection *mongo.Collection) VoteRepository {
	return &voteRepository{
		repository: repository{
			collection: collection,
		},
	}
}

func (r *voteRepository) GetOrInit(ctx context.Context, instance models.Instance, seed map[int][]string) (*models.VoteLedger, bool, error) {
	ledger := &models.VoteLedger{}

	err := r.collection.FindOne(ctx, instanceFilter(instance)).Decode(ledger)
	if err == nil {
		if ledger.Votes == nil {
			ledger.Votes = map[string][]string{}
		}
		return ledger, false, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	ledger = &models.VoteLedger{
		Team:    instance.Team,
		Channel: instance.Channel,
		TS:      instance.TS,
		Votes:   map[string][]string{},
	}
	for option, voters := range seed {
		if voters == nil {
			voters = []string{}
		}
		ledger.SetVoters(option, voters)
	}

	if _, err = r.collection.InsertOne(ctx, ledger); err != nil {
		return nil, false, err
	}

	return ledger, true, nil
}

func (r *voteRepository) Save(ctx context.Context, ledger *models.VoteLedger) error {
	instance := models.Instance{Team: ledger.Team, Channel: ledger.Channel, TS: ledger.TS}

	_, err := r.collection.UpdateOne(
		ctx,
		instanceFilter(instance),
		bson.M{"$set": bson.M{"votes": ledger.Votes}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *voteRepository) Delete(ctx context.Context, instance models.Instance) error {
	_, err := r.collection.DeleteMany(ctx, instanceFilter(instance))
	return err
}
