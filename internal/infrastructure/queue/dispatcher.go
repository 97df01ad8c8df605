package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/api/metrics"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const channelBuffer = 16

// TriggerKind names the event that asks for a session or enrollment refresh.
type TriggerKind string

const (
	TriggerStartup      TriggerKind = "startup"
	TriggerInterval     TriggerKind = "interval"
	TriggerFocus        TriggerKind = "focus"
	TriggerTokenChanged TriggerKind = "token_changed"
)

// Trigger is one queued refresh request.
type Trigger struct {
	Kind TriggerKind
	At   time.Time
}

// Dispatcher serializes triggers onto a single worker. Identity resolution
// runs on the worker, in arrival order; enrollment refreshes are handed off
// so a slow pass never delays a token change.
type Dispatcher struct {
	triggers    chan Trigger
	sessions    ports.SessionService
	enrollments ports.EnrollmentReconciler
	log         zerolog.Logger

	inflight sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. If buffer <= 0, channelBuffer is used.
func NewDispatcher(buffer int, sessions ports.SessionService, enrollments ports.EnrollmentReconciler, log zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = channelBuffer
	}
	return &Dispatcher{
		triggers:    make(chan Trigger, buffer),
		sessions:    sessions,
		enrollments: enrollments,
		log:         log,
	}
}

// Start launches the worker. It stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Enqueue queues a trigger without blocking. It reports false when the
// queue is full and the trigger was dropped.
func (d *Dispatcher) Enqueue(kind TriggerKind) bool {
	select {
	case d.triggers <- Trigger{Kind: kind, At: time.Now()}:
		metrics.TriggersTotal.WithLabelValues(string(kind), "queued").Inc()
		return true
	default:
		metrics.TriggersTotal.WithLabelValues(string(kind), "dropped").Inc()
		d.log.Warn().Str("trigger", string(kind)).Msg("trigger queue full, dropped")
		return false
	}
}

// Wait blocks until handed-off reconciliations have returned.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.triggers:
			d.handle(ctx, t)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, t Trigger) {
	log := d.log.With().Str("trigger", string(t.Kind)).Logger()

	switch t.Kind {
	case TriggerStartup, TriggerTokenChanged:
		if err := d.sessions.Resolve(ctx); err != nil {
			log.Debug().Err(err).Msg("session not resolved")
		}
		return
	}

	if !d.sessions.IsLearner() {
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "ignored").Inc()
		log.Debug().Msg("no active learner, trigger ignored")
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := d.enrollments.Reconcile(ctx, false); err != nil {
			log.Warn().Err(err).Msg("reconciliation failed")
		}
	}()
}
