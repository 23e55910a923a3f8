package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoDBClient wraps the MongoDB client and the collections the service owns.
// It implements the task, notification and user repositories.
type MongoDBClient struct {
	client        *mongo.Client
	database      *mongo.Database
	tasks         *mongo.Collection
	notifications *mongo.Collection
	users         *mongo.Collection
}

// NewMongoDBClient connects, pings and prepares indexes
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri, logURI := buildURI(cfg)
	log.Printf("[MONGO] Attempting to connect to MongoDB at %s", logURI)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	database := client.Database(cfg.Database)
	c := &MongoDBClient{
		client:        client,
		database:      database,
		tasks:         database.Collection("tasks"),
		notifications: database.Collection("notifications"),
		users:         database.Collection("users"),
	}
	c.ensureIndexes(ctx)

	log.Printf("[MONGO] Connected to database %s", cfg.Database)
	return c, nil
}

// buildURI returns the connection URI and a copy safe to log
func buildURI(cfg config.MongoDBConfig) (string, string) {
	if cfg.URI != "" {
		if u, err := url.Parse(cfg.URI); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "***")
				return cfg.URI, u.String()
			}
		}
		return cfg.URI, cfg.URI
	}

	if cfg.Username != "" && cfg.Password != "" {
		authSource := cfg.AuthSource
		if authSource == "" {
			authSource = "admin"
		}
		uri := fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
			url.UserPassword(cfg.Username, cfg.Password).String(),
			cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		logURI := fmt.Sprintf("mongodb://%s:***@%s:%s/%s?authSource=%s",
			url.User(cfg.Username).String(),
			cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		return uri, logURI
	}

	uri := fmt.Sprintf("mongodb://%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)
	return uri, uri
}

func (c *MongoDBClient) ensureIndexes(ctx context.Context) {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{c.tasks, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{c.tasks, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "assignedTo", Value: 1}}}},
		{c.tasks, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "dueDate", Value: 1}}}},
		{c.notifications, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{c.notifications, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "userId", Value: 1}, {Key: "read", Value: 1}}}},
		{c.users, mongo.IndexModel{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "role", Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			// Index might already exist, that's okay
			log.Printf("[MONGO] Note: index creation on %s: %v", idx.coll.Name(), err)
		}
	}
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
