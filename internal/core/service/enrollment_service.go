package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/imene253/AI-TECH-DZ2/internal/api/metrics"
	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const (
	pathEnrollments = "/api/Enrollment"
	pathPayments    = "/api/PaymentFille"
	pathCourses     = "/api/Courses"

	defaultCourseFetchConcurrency = 4
)

// errNoCourseSource is returned when neither the enrollment listing nor the
// payment listing could be read.
var errNoCourseSource = errors.New("enrollment and payment listings unavailable")

// looseID decodes an identifier sent either as a JSON number or as a numeric
// string. Anything else decodes to zero.
type looseID int64

func (l *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil || n != float64(int64(n)) {
		*l = 0
		return nil
	}
	*l = looseID(n)
	return nil
}

// enrollmentRow is one row of the enrollment or payment listings. Field
// matching is case-insensitive, so userId and UserId both land here.
type enrollmentRow struct {
	UserID   looseID `json:"userId"`
	CourseID looseID `json:"courseId"`
	Status   looseID `json:"status"`
	State    looseID `json:"state"`
}

func (r enrollmentRow) approved() bool {
	status := r.Status
	if status == 0 {
		status = r.State
	}
	return domain.PaymentStatus(status) == domain.PaymentApproved
}

type enrollmentService struct {
	api         ports.RemoteAPI
	storage     ports.Storage
	concurrency int
	log         zerolog.Logger

	// inflight counts running passes. Non-forced passes only start from zero.
	inflight atomic.Int32

	mu             sync.RWMutex
	userID         int64
	epoch          uint64
	courses        []domain.CourseCard
	lastReconciled time.Time
}

// NewEnrollmentService returns an EnrollmentService. concurrency bounds the
// course detail fetches of a single pass.
func NewEnrollmentService(api ports.RemoteAPI, storage ports.Storage, concurrency int, log zerolog.Logger) ports.EnrollmentService {
	if concurrency <= 0 {
		concurrency = defaultCourseFetchConcurrency
	}
	return &enrollmentService{
		api:         api,
		storage:     storage,
		concurrency: concurrency,
		log:         log,
		courses:     []domain.CourseCard{},
	}
}

// Activate makes userID the active learner. Switching to another user drops
// the displayed list and invalidates passes still running for the old one.
func (s *enrollmentService) Activate(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return
	}
	s.userID = userID
	s.epoch++
	s.setCoursesLocked(nil)
}

// Reset clears the active learner and the displayed list.
func (s *enrollmentService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = 0
	s.epoch++
	s.setCoursesLocked(nil)
}

func (s *enrollmentService) Courses() []domain.CourseCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.courses)
}

func (s *enrollmentService) Refreshing() bool {
	return s.inflight.Load() > 0
}

func (s *enrollmentService) LastReconciled() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReconciled
}

// Reconcile recomputes the active learner's course list.
//
// A non-forced call returns immediately when any pass is already running.
// A forced call clears the GET cache first and may overlap a running pass.
// There is no overall deadline: a pass lasts as long as its slowest request,
// and non-forced calls are skipped until it settles.
func (s *enrollmentService) Reconcile(ctx context.Context, force bool) error {
	userID, epoch := s.active()
	if userID <= 0 {
		s.mu.Lock()
		s.setCoursesLocked(nil)
		s.mu.Unlock()
		metrics.ReconciliationsTotal.WithLabelValues("no_learner").Inc()
		return nil
	}

	if force {
		s.inflight.Add(1)
	} else if !s.inflight.CompareAndSwap(0, 1) {
		metrics.ReconciliationsTotal.WithLabelValues("skipped").Inc()
		s.log.Debug().Int64("user_id", userID).Msg("reconciliation already in flight, skipped")
		return nil
	}
	defer s.inflight.Add(-1)

	start := time.Now()
	defer func() {
		metrics.ReconciliationDuration.WithLabelValues(strconv.FormatBool(force)).Observe(time.Since(start).Seconds())
	}()

	if force {
		s.api.ClearCache()
	} else if cached := s.LoadCached(ctx, userID); len(cached) > 0 {
		s.publish(epoch, cached, false)
	}

	ids, err := s.courseIDs(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			metrics.ReconciliationsTotal.WithLabelValues("discarded").Inc()
			return ctx.Err()
		}
		metrics.ReconciliationsTotal.WithLabelValues("failed").Inc()
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("reconciliation failed, keeping current courses")
		s.surfaceSnapshot(ctx, userID, epoch)
		return fmt.Errorf("reconcile user %d: %w", userID, err)
	}

	cards := s.fetchCourses(ctx, ids)
	if ctx.Err() != nil {
		metrics.ReconciliationsTotal.WithLabelValues("discarded").Inc()
		return ctx.Err()
	}

	if !s.publish(epoch, cards, true) {
		metrics.ReconciliationsTotal.WithLabelValues("discarded").Inc()
		s.log.Debug().Int64("user_id", userID).Msg("active user changed during reconciliation, result discarded")
		return nil
	}
	s.Persist(ctx, userID, cards)

	metrics.ReconciliationsTotal.WithLabelValues("success").Inc()
	s.log.Info().
		Int64("user_id", userID).
		Int("courses", len(cards)).
		Int("enrolled", len(ids)).
		Bool("forced", force).
		Msg("courses reconciled")
	return nil
}

// courseIDs lists the distinct course ids the user may access, ascending.
// The enrollment listing wins; approved payments are the fallback.
func (s *enrollmentService) courseIDs(ctx context.Context, userID int64) ([]int64, error) {
	var enrollments []enrollmentRow
	err := s.api.Get(ctx, pathEnrollments, &enrollments)
	if err == nil {
		return distinctCourseIDs(enrollments, userID, false), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.log.Debug().Err(err).Int64("user_id", userID).Msg("enrollment listing failed, using approved payments")

	metrics.ReconciliationsTotal.WithLabelValues("fallback").Inc()

	var payments []enrollmentRow
	if perr := s.api.Get(ctx, pathPayments, &payments); perr != nil {
		return nil, fmt.Errorf("%w: %w", errNoCourseSource, errors.Join(err, perr))
	}
	return distinctCourseIDs(payments, userID, true), nil
}

func distinctCourseIDs(rows []enrollmentRow, userID int64, approvedOnly bool) []int64 {
	seen := make(map[int64]struct{}, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if int64(r.UserID) != userID || r.CourseID <= 0 {
			continue
		}
		if approvedOnly && !r.approved() {
			continue
		}
		id := int64(r.CourseID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// fetchCourses loads the detail of every id concurrently. A failed fetch
// omits that course; the result keeps the ascending order of ids.
func (s *enrollmentService) fetchCourses(ctx context.Context, ids []int64) []domain.CourseCard {
	results := make([]*domain.CourseCard, len(ids))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var detail domain.CourseDetail
			if err := s.api.Get(ctx, fmt.Sprintf("%s/%d", pathCourses, id), &detail); err != nil {
				reason := "error"
				if errors.Is(err, domain.ErrNotFound) {
					reason = "not_found"
				} else {
					s.log.Error().Err(err).Int64("course_id", id).Msg("failed to fetch course")
				}
				metrics.CourseFetchErrorsTotal.WithLabelValues(reason).Inc()
				return nil
			}
			if detail.ID == 0 {
				detail.ID = id
			}
			card := domain.NewCourseCard(detail)
			results[i] = &card
			return nil
		})
	}
	_ = g.Wait()

	cards := make([]domain.CourseCard, 0, len(ids))
	for _, c := range results {
		if c != nil {
			cards = append(cards, *c)
		}
	}
	return cards
}

// surfaceSnapshot shows the last persisted list when a failed pass left
// nothing on display.
func (s *enrollmentService) surfaceSnapshot(ctx context.Context, userID int64, epoch uint64) {
	s.mu.RLock()
	empty := len(s.courses) == 0
	s.mu.RUnlock()
	if !empty {
		return
	}
	if cached := s.LoadCached(ctx, userID); len(cached) > 0 {
		s.publish(epoch, cached, false)
	}
}

// publish replaces the displayed list unless the active user changed since
// the pass started.
func (s *enrollmentService) publish(epoch uint64, cards []domain.CourseCard, reconciled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.setCoursesLocked(cards)
	if reconciled {
		s.lastReconciled = time.Now()
	}
	return true
}

func (s *enrollmentService) setCoursesLocked(cards []domain.CourseCard) {
	if cards == nil {
		cards = []domain.CourseCard{}
	}
	s.courses = slices.Clone(cards)
	metrics.EnrolledCourses.Set(float64(len(cards)))
}

func (s *enrollmentService) active() (int64, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.epoch
}

// LoadCached reads the persisted list for userID. A missing, unreadable or
// corrupt entry reads as an empty list.
func (s *enrollmentService) LoadCached(ctx context.Context, userID int64) []domain.CourseCard {
	if userID <= 0 {
		return []domain.CourseCard{}
	}
	raw, err := s.storage.Get(ctx, domain.CourseCacheKey(userID))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Err(err).Int64("user_id", userID).Msg("cached courses unreadable")
		}
		return []domain.CourseCard{}
	}
	var cards []domain.CourseCard
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		s.log.Debug().Err(err).Int64("user_id", userID).Msg("cached courses corrupt, ignoring")
		return []domain.CourseCard{}
	}
	if cards == nil {
		cards = []domain.CourseCard{}
	}
	return cards
}

// Persist writes courses for userID. Failures are logged only.
func (s *enrollmentService) Persist(ctx context.Context, userID int64, courses []domain.CourseCard) {
	if userID <= 0 {
		return
	}
	if courses == nil {
		courses = []domain.CourseCard{}
	}
	raw, err := json.Marshal(courses)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to encode courses")
		return
	}
	if err := s.storage.Set(context.WithoutCancel(ctx), domain.CourseCacheKey(userID), string(raw)); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to persist courses")
	}
}
