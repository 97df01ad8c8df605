package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/api/handler"
	"github.com/imene253/AI-TECH-DZ2/internal/api/middleware"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/http/handlers"
)

// Deps carries everything the control API needs.
type Deps struct {
	Auth        ports.AuthService
	Sessions    ports.SessionService
	Enrollments ports.EnrollmentService
	Catalog     ports.CatalogService
	Payments    ports.PaymentService
	Triggers    handler.TriggerQueue

	// Readiness probes, keyed by dependency name.
	Probes map[string]ports.Pinger

	// ControlSecret signs control tokens. Empty disables control auth.
	ControlSecret string

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – is storage up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(d.Auth, d.Sessions)
	courseHandler := handler.NewCourseHandler(d.Catalog, d.Enrollments, d.Log)
	signalHandler := handler.NewSignalHandler(d.Triggers)
	paymentHandler := handler.NewPaymentHandler(d.Payments)

	v1 := e.Group("/v1")
	if d.ControlSecret != "" {
		v1.Use(middleware.ControlAuth(d.ControlSecret))
	}

	// --- Session routes ---
	v1.POST("/session/login", sessionHandler.Login)
	v1.POST("/session/register", sessionHandler.Register)
	v1.POST("/session/logout", sessionHandler.Logout)
	v1.GET("/session", sessionHandler.Get)

	// --- Catalog routes ---
	v1.GET("/courses", courseHandler.List)
	v1.GET("/courses/:id", courseHandler.Get)
	v1.GET("/courses/:id/chapters", courseHandler.Chapters)

	// --- Enrolled courses (resolved session required) ---
	mine := v1.Group("/my-courses", middleware.RequireSession(d.Sessions))
	mine.GET("", courseHandler.MyCourses)
	mine.POST("/refresh", courseHandler.Refresh)

	v1.POST("/signals/focus", signalHandler.Focus)

	// --- Payments (learner only) ---
	v1.POST("/payments", paymentHandler.Submit, middleware.RequireLearner(d.Sessions))

	// --- Admin review tables ---
	admin := v1.Group("/admin", middleware.RequireAdmin(d.Sessions))
	admin.GET("/payments", paymentHandler.ListPayments)
	admin.PUT("/payments/:id", paymentHandler.Review)
	admin.GET("/enrollments", paymentHandler.ListEnrollments)
	admin.DELETE("/enrollments/:id", paymentHandler.DeleteEnrollment)

	return e
}
