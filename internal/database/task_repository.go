package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListTasks returns the company's tasks matching filter, newest first
func (c *MongoDBClient) ListTasks(ctx context.Context, companyID string, filter models.TaskFilter) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{"companyId": companyID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Assignee != "" {
		query["assignedTo"] = filter.Assignee
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.tasks.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].EnsureLists()
	}
	return tasks, nil
}

// GetTask loads one task of the company
func (c *MongoDBClient) GetTask(ctx context.Context, companyID, taskID string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var task models.Task
	err := c.tasks.FindOne(ctx, bson.M{"_id": taskID, "companyId": companyID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	task.EnsureLists()
	return &task, nil
}

// InsertTask stores a new task
func (c *MongoDBClient) InsertTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := c.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// ReplaceTask overwrites the stored task document
func (c *MongoDBClient) ReplaceTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := c.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID, "companyId": task.CompanyID}, task)
	if err != nil {
		return fmt.Errorf("failed to replace task: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task of the company and returns what was removed
func (c *MongoDBClient) DeleteTask(ctx context.Context, companyID, taskID string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var task models.Task
	err := c.tasks.FindOneAndDelete(ctx, bson.M{"_id": taskID, "companyId": companyID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return &task, nil
}

// ListDueSoon returns open, not yet reminded tasks due in [from, until] across all companies
func (c *MongoDBClient) ListDueSoon(ctx context.Context, from, until time.Time) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{
		"status":            bson.M{"$ne": models.StatusCompleted},
		"dueDate":           bson.M{"$gte": from, "$lte": until},
		"dueSoonNotifiedAt": bson.M{"$exists": false},
		"assignedTo.0":      bson.M{"$exists": true},
	}
	cursor, err := c.tasks.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode due tasks: %w", err)
	}
	return tasks, nil
}

// MarkDueSoonNotified stamps the reminder time on a task
func (c *MongoDBClient) MarkDueSoonNotified(ctx context.Context, companyID, taskID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID, "companyId": companyID},
		bson.M{"$set": bson.M{"dueSoonNotifiedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to stamp due-soon reminder: %w", err)
	}
	return nil
}
