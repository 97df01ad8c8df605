package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/api/metrics"
	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const pathGetMe = "/api/Authentification/GetMe"

type sessionService struct {
	api         ports.RemoteAPI
	storage     ports.Storage
	enrollments ports.EnrollmentReconciler
	log         zerolog.Logger
	now         func() time.Time

	mu          sync.RWMutex
	state       ports.SessionState
	session     domain.Session
	token       string
	generation  uint64
	initialized bool
}

// NewSessionService returns the identity resolver. enrollments is driven on
// every transition: activated for learners, reset otherwise.
func NewSessionService(api ports.RemoteAPI, storage ports.Storage, enrollments ports.EnrollmentReconciler, log zerolog.Logger) ports.SessionService {
	return &sessionService{
		api:         api,
		storage:     storage,
		enrollments: enrollments,
		log:         log,
		now:         time.Now,
	}
}

// Resolve looks up the identity behind the stored token. A resolution that
// is superseded by a newer Resolve or an Invalidate while waiting on the
// network leaves no trace.
func (s *sessionService) Resolve(ctx context.Context) error {
	gen := s.begin()

	token, err := s.storage.Get(ctx, domain.TokenKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Err(err).Msg("token unreadable, treating as signed out")
	}
	if token == "" {
		s.settleUnauthenticated(gen)
		return domain.ErrUnauthenticated
	}

	if s.tokenExpired(token) {
		s.fail(ctx, gen, domain.ErrAuthExpired)
		return fmt.Errorf("resolve session: %w", domain.ErrAuthExpired)
	}

	s.mu.Lock()
	changed := token != s.token
	s.token = token
	s.mu.Unlock()
	if changed {
		// Cached responses belong to the previous identity.
		s.api.ClearCache()
	}

	var payload map[string]any
	if err := s.api.Fetch(ctx, pathGetMe, &payload); err != nil {
		if ctx.Err() != nil {
			s.abandon(gen)
			return ctx.Err()
		}
		s.fail(ctx, gen, err)
		return fmt.Errorf("resolve session: %w", err)
	}

	userID, err := domain.NormalizeUserID(payload)
	if err != nil {
		s.fail(ctx, gen, err)
		return fmt.Errorf("resolve session: %w", err)
	}
	sess := domain.Session{UserID: userID, Role: domain.ParseRole(payload)}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.log.Debug().Int64("user_id", userID).Msg("session resolution superseded, result discarded")
		return nil
	}
	s.state = ports.StateResolved
	s.session = sess
	s.mu.Unlock()
	metrics.SessionTransitionsTotal.WithLabelValues(ports.StateResolved.String()).Inc()

	s.log.Info().
		Int64("user_id", sess.UserID).
		Str("role", sess.Role.String()).
		Msg("session resolved")

	if domain.IsLearner(&sess) {
		s.enrollments.Activate(sess.UserID)
		if err := s.enrollments.Reconcile(ctx, false); err != nil {
			s.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("initial reconciliation failed")
		}
	} else {
		s.enrollments.Reset()
	}

	s.markInitialized()
	return nil
}

// Invalidate drops the token and the identity behind it.
func (s *sessionService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	wasResolved := s.state != ports.StateUnauthenticated
	s.state = ports.StateUnauthenticated
	s.session = domain.Session{}
	s.token = ""
	s.mu.Unlock()

	if err := s.storage.Delete(context.WithoutCancel(ctx), domain.TokenKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear token")
	}
	s.enrollments.Reset()
	if wasResolved {
		metrics.SessionTransitionsTotal.WithLabelValues(ports.StateUnauthenticated.String()).Inc()
		s.log.Info().Msg("session invalidated")
	}
}

// Session returns the resolved identity, if any.
func (s *sessionService) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.state == ports.StateResolved
}

func (s *sessionService) State() ports.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Initialized reports whether a first resolution attempt has settled.
func (s *sessionService) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// IsLearner is the single learner predicate used for enrollment gating.
func (s *sessionService) IsLearner() bool {
	sess, ok := s.Session()
	return ok && domain.IsLearner(&sess)
}

func (s *sessionService) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = ports.StateResolving
	metrics.SessionTransitionsTotal.WithLabelValues(ports.StateResolving.String()).Inc()
	return s.generation
}

// settleUnauthenticated records that no token is stored.
func (s *sessionService) settleUnauthenticated(gen uint64) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state = ports.StateUnauthenticated
	s.session = domain.Session{}
	s.token = ""
	s.initialized = true
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues(ports.StateUnauthenticated.String()).Inc()
	s.enrollments.Reset()
}

// fail handles a failed resolution: the token is cleared along with the
// identity. A 401 has usually invalidated the session already through the
// auth-expired hook, which also supersedes gen.
func (s *sessionService) fail(ctx context.Context, gen uint64, cause error) {
	defer s.markInitialized()

	s.mu.RLock()
	current := s.generation == gen
	s.mu.RUnlock()
	if !current {
		return
	}
	s.log.Warn().Err(cause).Msg("session resolution failed, signing out")
	s.Invalidate(ctx)
}

// abandon reverts a cancelled resolution without touching the token.
func (s *sessionService) abandon(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.state = ports.StateUnauthenticated
		s.session = domain.Session{}
	}
}

func (s *sessionService) markInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are left to the identity call.
func (s *sessionService) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return s.now().After(exp.Time)
}
