// Package memory is an in-process implementation of the durable storage
// ports. Handles created with Sibling share data but have distinct origins,
// so a change made through one is delivered to watchers of the others.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const watchBuffer = 16

type backend struct {
	mu       sync.Mutex
	data     map[string]string
	watchers map[*watcher]struct{}
}

type watcher struct {
	origin string
	ch     chan ports.StorageEvent
}

// Store is one handle onto an in-memory key-value backend.
type Store struct {
	b      *backend
	origin string
}

var (
	_ ports.Storage        = (*Store)(nil)
	_ ports.StorageWatcher = (*Store)(nil)
	_ ports.Pinger         = (*Store)(nil)
)

// New returns a handle onto a fresh, empty backend.
func New() *Store {
	return &Store{
		b: &backend{
			data:     make(map[string]string),
			watchers: make(map[*watcher]struct{}),
		},
		origin: uuid.NewString(),
	}
}

// Sibling returns another handle onto the same backend.
func (s *Store) Sibling() *Store {
	return &Store{b: s.b, origin: uuid.NewString()}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	v, ok := s.b.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.data[key] = value
	s.notify(ports.StorageEvent{Key: key, Value: value, OriginID: s.origin})
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.data[key]; !ok {
		return nil
	}
	delete(s.b.data, key)
	s.notify(ports.StorageEvent{Key: key, Deleted: true, OriginID: s.origin})
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Watch reports changes made through other handles until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan ports.StorageEvent, error) {
	w := &watcher{origin: s.origin, ch: make(chan ports.StorageEvent, watchBuffer)}

	s.b.mu.Lock()
	s.b.watchers[w] = struct{}{}
	s.b.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.b.mu.Lock()
		delete(s.b.watchers, w)
		close(w.ch)
		s.b.mu.Unlock()
	}()
	return w.ch, nil
}

// notify must be called with b.mu held. Slow watchers lose events.
func (s *Store) notify(ev ports.StorageEvent) {
	for w := range s.b.watchers {
		if w.origin == ev.OriginID {
			continue
		}
		select {
		case w.ch <- ev:
		default:
		}
	}
}
