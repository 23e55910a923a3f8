package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountInCompany counts how many of ids are users of the company
func (c *MongoDBClient) CountInCompany(ctx context.Context, companyID string, ids []string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	count, err := c.users.CountDocuments(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"companyId": companyID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(count), nil
}

// ListAdmins returns the company's admins
func (c *MongoDBClient) ListAdmins(ctx context.Context, companyID string) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := c.users.Find(ctx, bson.M{"companyId": companyID, "role": models.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer cursor.Close(ctx)

	admins := []models.User{}
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}
	return admins, nil
}

// GetUser loads one directory entry of the company
func (c *MongoDBClient) GetUser(ctx context.Context, companyID, userID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	err := c.users.FindOne(ctx, bson.M{"_id": userID, "companyId": companyID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpsertUser creates or refreshes a directory entry
func (c *MongoDBClient) UpsertUser(ctx context.Context, user models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
