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

// InsertNotification stores one notification row
func (c *MongoDBClient) InsertNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := c.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a page of the recipient's rows, newest first
func (c *MongoDBClient) ListNotifications(ctx context.Context, to models.Recipient, q models.NotificationQuery) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := recipientFilter(to)
	if q.UnreadOnly {
		query["read"] = false
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(q.Skip)).
		SetLimit(int64(q.Limit))

	cursor, err := c.notifications.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread counts the recipient's unread rows
func (c *MongoDBClient) CountUnread(ctx context.Context, to models.Recipient) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := recipientFilter(to)
	query["read"] = false
	count, err := c.notifications.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips an unread row to read. When nothing unread matches, the row is
// looked up again so a repeated call returns it unchanged.
func (c *MongoDBClient) MarkRead(ctx context.Context, to models.Recipient, id string, at time.Time) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	unread := recipientFilter(to)
	unread["_id"] = id
	unread["read"] = false

	var n models.Notification
	err := c.notifications.FindOneAndUpdate(ctx,
		unread,
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	owned := recipientFilter(to)
	owned["_id"] = id
	err = c.notifications.FindOne(ctx, owned).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}
	return &n, nil
}

// MarkAllRead flips every unread row of the recipient
func (c *MongoDBClient) MarkAllRead(ctx context.Context, to models.Recipient, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := recipientFilter(to)
	query["read"] = false
	result, err := c.notifications.UpdateMany(ctx,
		query,
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

// DeleteNotification removes one of the recipient's rows; a miss is not an error
func (c *MongoDBClient) DeleteNotification(ctx context.Context, to models.Recipient, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := recipientFilter(to)
	query["_id"] = id
	if _, err := c.notifications.DeleteOne(ctx, query); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// recipientFilter matches the rows of one user inside one company
func recipientFilter(to models.Recipient) bson.M {
	return bson.M{"companyId": to.CompanyID, "userId": to.UserID}
}
