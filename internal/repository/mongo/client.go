// Package mongo implements the user and chat repositories on MongoDB
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/ashudevin/caremind/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	chatsCollection = "chats"
)

// DB wraps the MongoDB client and the application database
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection and ensures indexes
func New(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	d := &DB{client: client, db: client.Database(cfg.Database)}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")
	return d, nil
}

// one chat document per user, one account per email
func (d *DB) ensureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(chatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create chats index: %w", err)
	}

	_, err = d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) Sessions() *SessionRepository {
	return NewSessionRepository(d.db.Collection(chatsCollection))
}

func (d *DB) Users() *UserRepository {
	return NewUserRepository(d.db.Collection(usersCollection))
}
