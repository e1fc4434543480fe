package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"open_poll_bot/internal/db/models"
)

type scheduleTaskRepository struct {
	repository
}

type ScheduleTaskRepository interface {
	// Upsert replaces the poll's task wholesale; a poll has at most one.
	Upsert(ctx context.Context, task *models.ScheduleTask) error
	Update(ctx context.Context, task *models.ScheduleTask) error
	GetOne(ctx context.Context, pollID string) (*models.ScheduleTask, error)
	// GetDue returns enabled, not-done tasks with next_ts at or before now.
	GetDue(ctx context.Context, now time.Time) ([]*models.ScheduleTask, error)
	Delete(ctx context.Context, pollID string) error
	// DeleteDisabledBefore purges disabled tasks whose next_ts is older
	// than the cutoff and returns how many were removed.
	DeleteDisabledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewScheduleTaskRepository(collection *mongo.Collection) ScheduleTaskRepository {
	return &scheduleTaskRepository{
		repository: repository{
			collection: collection,
		},
	}
}

func (r *scheduleTaskRepository) Upsert(ctx context.Context, task *models.ScheduleTask) error {
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"poll_id": task.PollID},
		task,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *scheduleTaskRepository) Update(ctx context.Context, task *models.ScheduleTask) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"poll_id": task.PollID}, task)
	return err
}

func (r *scheduleTaskRepository) GetOne(ctx context.Context, pollID string) (*models.ScheduleTask, error) {
	task := &models.ScheduleTask{}

	err := r.collection.FindOne(ctx, bson.M{"poll_id": pollID}).Decode(task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *scheduleTaskRepository) GetDue(ctx context.Context, now time.Time) ([]*models.ScheduleTask, error) {
	tasks := make([]*models.ScheduleTask, 0)

	cursor, err := r.collection.Find(ctx, bson.M{
		"next_ts":   bson.M{"$lte": now},
		"is_enable": true,
		"is_done":   false,
	})
	if err != nil {
		return nil, err
	}

	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *scheduleTaskRepository) Delete(ctx context.Context, pollID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"poll_id": pollID})
	return err
}

func (r *scheduleTaskRepository) DeleteDisabledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"is_enable": false,
		"next_ts":   bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
