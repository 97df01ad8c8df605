package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const maxProofSize = 10 << 20

type paymentService struct {
	api      ports.RemoteAPI
	sessions ports.SessionService
	log      zerolog.Logger
	now      func() time.Time
}

// NewPaymentService returns a PaymentService. Proof submission acts for the
// resolved learner; review and enrollment management require an
// administrator session.
func NewPaymentService(api ports.RemoteAPI, sessions ports.SessionService, log zerolog.Logger) ports.PaymentService {
	return &paymentService{api: api, sessions: sessions, log: log, now: time.Now}
}

// SubmitProof uploads a payment receipt for the current learner. Access is
// granted once an administrator approves it.
func (s *paymentService) SubmitProof(ctx context.Context, proof ports.PaymentProof) error {
	sess, ok := s.sessions.Session()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if !domain.IsLearner(&sess) {
		return domain.ErrForbidden
	}
	if proof.CourseID <= 0 || len(proof.Content) == 0 || len(proof.Content) > maxProofSize {
		return domain.ErrInvalidInput
	}
	filename := strings.TrimSpace(proof.Filename)
	if filename == "" {
		filename = "proof"
	}

	form := &ports.Form{
		Fields: map[string]string{
			"UserId":   strconv.FormatInt(sess.UserID, 10),
			"CourseId": strconv.FormatInt(proof.CourseID, 10),
		},
		Files: []ports.FormFile{{Field: "File", Filename: filename, Content: proof.Content}},
	}
	if err := s.api.Post(ctx, pathPayments, form, nil); err != nil {
		return fmt.Errorf("submit payment proof: %w", err)
	}

	s.log.Info().
		Int64("user_id", sess.UserID).
		Int64("course_id", proof.CourseID).
		Int("size", len(proof.Content)).
		Msg("payment proof submitted")
	return nil
}

func (s *paymentService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	var payments []domain.Payment
	if err := s.api.Fetch(ctx, pathPayments, &payments); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

// Review sets the status of a payment. Approving it also enrolls the payer;
// a failed enrollment is logged and does not fail the review.
func (s *paymentService) Review(ctx context.Context, paymentID int64, status domain.PaymentStatus) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if paymentID <= 0 || !status.Valid() {
		return domain.ErrInvalidInput
	}

	payments, err := s.ListPayments(ctx)
	if err != nil {
		return err
	}
	var payment *domain.Payment
	for i := range payments {
		if payments[i].ID == paymentID {
			payment = &payments[i]
			break
		}
	}
	if payment == nil {
		return domain.ErrNotFound
	}

	path := fmt.Sprintf("%s/%d", pathPayments, paymentID)
	if err := s.api.Put(ctx, path, map[string]any{"status": int(status)}, nil); err != nil {
		return fmt.Errorf("review payment %d: %w", paymentID, err)
	}
	defer s.api.ClearCache()

	log := s.log.With().
		Int64("payment_id", paymentID).
		Int64("user_id", payment.UserID).
		Int64("course_id", payment.CourseID).
		Logger()

	if status != domain.PaymentApproved {
		log.Info().Int("status", int(status)).Msg("payment reviewed")
		return nil
	}

	enrollment := domain.Enrollment{
		UserID:   payment.UserID,
		CourseID: payment.CourseID,
		Date:     s.now().UTC(),
	}
	if err := s.api.Post(ctx, pathEnrollments, enrollment, nil); err != nil {
		log.Warn().Err(err).Msg("payment approved but enrollment creation failed")
		return nil
	}
	log.Info().Msg("payment approved, learner enrolled")
	return nil
}

func (s *paymentService) ListEnrollments(ctx context.Context) ([]domain.Enrollment, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	var enrollments []domain.Enrollment
	if err := s.api.Fetch(ctx, pathEnrollments, &enrollments); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if enrollments == nil {
		enrollments = []domain.Enrollment{}
	}
	return enrollments, nil
}

func (s *paymentService) DeleteEnrollment(ctx context.Context, id int64) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrInvalidInput
	}
	if err := s.api.Delete(ctx, fmt.Sprintf("%s/%d", pathEnrollments, id)); err != nil {
		return fmt.Errorf("delete enrollment %d: %w", id, err)
	}
	s.api.ClearCache()
	s.log.Info().Int64("enrollment_id", id).Msg("enrollment deleted")
	return nil
}

func (s *paymentService) requireAdmin() error {
	sess, ok := s.sessions.Session()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if sess.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
