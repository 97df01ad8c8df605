package ports

import (
	"context"
	"time"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

// SessionState is the identity resolver state.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateResolving
	StateResolved
)

func (s SessionState) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "unauthenticated"
	}
}

// SessionService resolves and holds the identity behind the stored token.
type SessionService interface {
	Resolve(ctx context.Context) error
	Invalidate(ctx context.Context)
	Session() (domain.Session, bool)
	State() SessionState
	Initialized() bool
	IsLearner() bool
}

// EnrollmentReconciler is the narrow view of the enrollment store the
// resolver drives.
type EnrollmentReconciler interface {
	Activate(userID int64)
	Reset()
	Reconcile(ctx context.Context, force bool) error
}

// EnrollmentService keeps the active learner's course list current.
type EnrollmentService interface {
	EnrollmentReconciler
	Courses() []domain.CourseCard
	Refreshing() bool
	LastReconciled() time.Time
	LoadCached(ctx context.Context, userID int64) []domain.CourseCard
	Persist(ctx context.Context, userID int64, courses []domain.CourseCard)
}

// RegisterInput carries the registration form. A nil Role registers a
// learner.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     *domain.Role
}

// AuthService performs login, registration and logout against the remote API.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, in RegisterInput) error
	Logout(ctx context.Context)
}

// CatalogService reads public course content.
type CatalogService interface {
	ListCourses(ctx context.Context) []domain.CourseDetail
	GetCourse(ctx context.Context, id int64) (*domain.CourseDetail, error)
	ListChapters(ctx context.Context, courseID int64) []domain.Chapter
	ListVideos(ctx context.Context, chapterID int64) []domain.Video
	ListQuizzes(ctx context.Context, chapterID int64) []domain.Quiz
}

// PaymentProof is an uploaded payment receipt.
type PaymentProof struct {
	CourseID int64
	Filename string
	Content  []byte
}

// PaymentService handles payment proofs and their administrative review.
type PaymentService interface {
	SubmitProof(ctx context.Context, proof PaymentProof) error
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	Review(ctx context.Context, paymentID int64, status domain.PaymentStatus) error
	ListEnrollments(ctx context.Context) ([]domain.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error
}
