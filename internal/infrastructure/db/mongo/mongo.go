package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "learner-agent"
)

// Config captures the settings of the MongoDB-backed storage.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Open connects to MongoDB, verifies connectivity with a ping, makes sure the
// storage collection is indexed, and returns a Storage that owns the client.
// A default timeout is applied when none is provided.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := newStorage(client, client.Database(cfg.Database))
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}
	return s, nil
}

// ensureIndexes indexes updated_at so stale entries can be inspected and
// pruned by operators.
func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at_desc"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
