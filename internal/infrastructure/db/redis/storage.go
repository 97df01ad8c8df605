package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const (
	keyPrefix      = "learner:"
	changesChannel = "learner:storage"
)

// change is the payload published on every write so other agents sharing the
// same Redis observe token and cache changes.
type change struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Origin  string `json:"origin"`
}

// Storage is durable key-value storage in Redis. Values never expire.
// Key format: learner:<key>
type Storage struct {
	client *redis.Client
	origin string
	log    zerolog.Logger
}

var (
	_ ports.Storage        = (*Storage)(nil)
	_ ports.StorageWatcher = (*Storage)(nil)
	_ ports.Pinger         = (*Storage)(nil)
)

// NewStorage wraps client. Each Storage has its own origin id so its watcher
// skips the changes it published itself.
func NewStorage(client *redis.Client, log zerolog.Logger) *Storage {
	return &Storage{client: client, origin: uuid.NewString(), log: log}
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	s.publish(ctx, change{Key: key, Value: value, Origin: s.origin})
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	s.publish(ctx, change{Key: key, Deleted: true, Origin: s.origin})
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Watch subscribes to changes published by other Storage instances. The
// channel closes when ctx is done.
func (s *Storage) Watch(ctx context.Context) (<-chan ports.StorageEvent, error) {
	sub := s.client.Subscribe(ctx, changesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan ports.StorageEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, ok := s.decodeChange(msg.Payload)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Storage) publish(ctx context.Context, c change) {
	payload, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, changesChannel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", c.Key).Msg("failed to publish storage change")
	}
}

// decodeChange parses a published payload, dropping malformed messages and
// the ones this instance published.
func (s *Storage) decodeChange(payload string) (ports.StorageEvent, bool) {
	var c change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		s.log.Debug().Err(err).Msg("ignoring malformed storage change")
		return ports.StorageEvent{}, false
	}
	if c.Key == "" || c.Origin == s.origin {
		return ports.StorageEvent{}, false
	}
	return ports.StorageEvent{Key: c.Key, Value: c.Value, Deleted: c.Deleted, OriginID: c.Origin}, true
}
