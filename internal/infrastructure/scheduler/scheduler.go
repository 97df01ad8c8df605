// Package scheduler turns time and storage changes into refresh triggers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/queue"
)

// Enqueuer accepts triggers without blocking.
type Enqueuer interface {
	Enqueue(kind queue.TriggerKind) bool
}

// Scheduler emits the startup trigger once, the interval trigger on a fixed
// schedule, and a token-changed trigger whenever another instance writes or
// removes the stored token.
type Scheduler struct {
	c        *cron.Cron
	interval time.Duration
	triggers Enqueuer
	watcher  ports.StorageWatcher
	log      zerolog.Logger
}

// New creates a Scheduler. watcher may be nil when the storage cannot
// observe other instances.
func New(interval time.Duration, triggers Enqueuer, watcher ports.StorageWatcher, log zerolog.Logger) (*Scheduler, error) {
	if interval < time.Second {
		return nil, errors.New("scheduler: refresh interval must be at least one second")
	}
	return &Scheduler{
		c:        cron.New(),
		interval: interval,
		triggers: triggers,
		watcher:  watcher,
		log:      log,
	}, nil
}

// Start registers the jobs and begins watching storage until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.addScheduledJob("enrollment refresh", queue.TriggerInterval, "@every "+s.interval.String()); err != nil {
		return err
	}
	s.addStartupJob("identity resolution", queue.TriggerStartup)

	if s.watcher != nil {
		events, err := s.watcher.Watch(ctx)
		if err != nil {
			return fmt.Errorf("scheduler: watch storage: %w", err)
		}
		go s.watch(events)
	}

	s.c.Start()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop halts the schedule. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.c.Stop()
}

func (s *Scheduler) addScheduledJob(name string, kind queue.TriggerKind, spec string) error {
	_, err := s.c.AddFunc(spec, func() {
		s.log.Debug().Str("job", name).Msg("executing scheduled job")
		s.triggers.Enqueue(kind)
	})
	if err != nil {
		return fmt.Errorf("scheduler: add job %q: %w", name, err)
	}
	s.log.Debug().Str("job", name).Str("schedule", spec).Msg("scheduled job added")
	return nil
}

func (s *Scheduler) addStartupJob(name string, kind queue.TriggerKind) {
	s.log.Debug().Str("job", name).Msg("executing startup job")
	s.triggers.Enqueue(kind)
}

func (s *Scheduler) watch(events <-chan ports.StorageEvent) {
	for ev := range events {
		if ev.Key != domain.TokenKey {
			continue
		}
		s.log.Info().Bool("deleted", ev.Deleted).Str("origin", ev.OriginID).Msg("token changed by another instance")
		s.triggers.Enqueue(queue.TriggerTokenChanged)
	}
}
