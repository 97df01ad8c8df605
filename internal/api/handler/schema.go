package handler

import (
	"time"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"     validate:"required"`
	Password string `json:"password"  validate:"required,min=6"`
	Role     *int   `json:"role"      validate:"omitempty,oneof=0 1"`
}

type reviewRequest struct {
	Status *int `json:"status" validate:"required,min=0,max=2"`
}

type sessionResponse struct {
	State       string `json:"state"`
	Initialized bool   `json:"initialized"`
	UserID      int64  `json:"user_id,omitempty"`
	Role        string `json:"role,omitempty"`
	Learner     bool   `json:"learner"`
}

type myCoursesResponse struct {
	Courses        []domain.CourseCard `json:"courses"`
	Refreshing     bool                `json:"refreshing"`
	Stale          bool                `json:"stale"`
	LastReconciled *time.Time          `json:"last_reconciled,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
