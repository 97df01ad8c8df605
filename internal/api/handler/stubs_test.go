package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/queue"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (domain.Session, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) error
	loggedOut  bool
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) error {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Logout(context.Context) { s.loggedOut = true }

type stubSessionService struct {
	session *domain.Session
	state   ports.SessionState
}

func (s *stubSessionService) Resolve(context.Context) error { return nil }
func (s *stubSessionService) Invalidate(context.Context) {}
func (s *stubSessionService) State() ports.SessionState { return s.state }
func (s *stubSessionService) Initialized() bool { return true }
func (s *stubSessionService) IsLearner() bool { return domain.IsLearner(s.session) }

func (s *stubSessionService) Session() (domain.Session, bool) {
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

type stubEnrollmentService struct {
	courses      []domain.CourseCard
	reconcileErr error
	forced       []bool
	reconciledAt time.Time
}

func (s *stubEnrollmentService) Activate(int64) {}
func (s *stubEnrollmentService) Reset() {}
func (s *stubEnrollmentService) Courses() []domain.CourseCard { return s.courses }
func (s *stubEnrollmentService) Refreshing() bool { return false }
func (s *stubEnrollmentService) LastReconciled() time.Time { return s.reconciledAt }

func (s *stubEnrollmentService) Reconcile(_ context.Context, force bool) error {
	s.forced = append(s.forced, force)
	return s.reconcileErr
}

func (s *stubEnrollmentService) LoadCached(context.Context, int64) []domain.CourseCard {
	return nil
}

func (s *stubEnrollmentService) Persist(context.Context, int64, []domain.CourseCard) {}

type stubCatalogService struct {
	courses  []domain.CourseDetail
	chapters map[int64][]domain.Chapter
}

func (s *stubCatalogService) ListCourses(context.Context) []domain.CourseDetail { return s.courses }

func (s *stubCatalogService) GetCourse(_ context.Context, id int64) (*domain.CourseDetail, error) {
	for _, c := range s.courses {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalogService) ListChapters(_ context.Context, courseID int64) []domain.Chapter {
	return s.chapters[courseID]
}

func (s *stubCatalogService) ListVideos(context.Context, int64) []domain.Video { return nil }
func (s *stubCatalogService) ListQuizzes(context.Context, int64) []domain.Quiz { return nil }

type stubPaymentService struct {
	submitted []ports.PaymentProof
	reviewed  map[int64]domain.PaymentStatus
	deleted   []int64
	payments  []domain.Payment
	err       error
}

func (s *stubPaymentService) SubmitProof(_ context.Context, proof ports.PaymentProof) error {
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, proof)
	return nil
}

func (s *stubPaymentService) ListPayments(context.Context) ([]domain.Payment, error) {
	return s.payments, s.err
}

func (s *stubPaymentService) Review(_ context.Context, id int64, status domain.PaymentStatus) error {
	if s.err != nil {
		return s.err
	}
	if s.reviewed == nil {
		s.reviewed = make(map[int64]domain.PaymentStatus)
	}
	s.reviewed[id] = status
	return nil
}

func (s *stubPaymentService) ListEnrollments(context.Context) ([]domain.Enrollment, error) {
	return nil, s.err
}

func (s *stubPaymentService) DeleteEnrollment(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubQueue struct {
	full bool
	got  []queue.TriggerKind
}

func (q *stubQueue) Enqueue(kind queue.TriggerKind) bool {
	if q.full {
		return false
	}
	q.got = append(q.got, kind)
	return true
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// expectHTTPError asserts err is an *echo.HTTPError carrying code.
func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

