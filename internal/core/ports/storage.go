package ports

import "context"

// Storage is the durable client-side key-value store. Values are JSON text.
// Get returns domain.ErrNotFound for an absent key.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StorageEvent describes a change made by another agent instance.
type StorageEvent struct {
	Key      string
	Value    string
	Deleted  bool
	OriginID string
}

// StorageWatcher delivers changes made through other handles to the same
// durable store. Changes made through the watching handle are not reported.
type StorageWatcher interface {
	Watch(ctx context.Context) (<-chan StorageEvent, error)
}

// Pinger is implemented by storages that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
