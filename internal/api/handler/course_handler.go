package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

// CourseHandler serves the public catalog and the learner's own courses.
type CourseHandler struct {
	catalog     ports.CatalogService
	enrollments ports.EnrollmentService
	log         zerolog.Logger
}

func NewCourseHandler(catalog ports.CatalogService, enrollments ports.EnrollmentService, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{catalog: catalog, enrollments: enrollments, log: log}
}

// List handles GET /v1/courses.
//
// @Summary      List courses
// @Tags         courses
// @Produce      json
// @Success      200  {array}  domain.CourseDetail
// @Router       /v1/courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.ListCourses(c.Request().Context()))
}

// Get handles GET /v1/courses/:id.
//
// @Summary      Get a course
// @Tags         courses
// @Produce      json
// @Param        id   path      int  true  "Course id"
// @Success      200  {object}  domain.CourseDetail
// @Failure      404  {object}  errorResponse
// @Router       /v1/courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.catalog.GetCourse(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Chapters handles GET /v1/courses/:id/chapters.
//
// @Summary      List the chapters of a course
// @Tags         courses
// @Produce      json
// @Param        id   path     int  true  "Course id"
// @Success      200  {array}  domain.Chapter
// @Router       /v1/courses/{id}/chapters [get]
func (h *CourseHandler) Chapters(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.catalog.ListChapters(c.Request().Context(), id))
}

// MyCourses handles GET /v1/my-courses. Opening the list always reconciles
// with a cleared cache first.
//
// @Summary      The learner's courses
// @Tags         my-courses
// @Produce      json
// @Success      200  {object}  myCoursesResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/my-courses [get]
func (h *CourseHandler) MyCourses(c echo.Context) error {
	return h.reconcile(c)
}

// Refresh handles POST /v1/my-courses/refresh.
//
// @Summary      Refresh the learner's courses
// @Tags         my-courses
// @Produce      json
// @Success      200  {object}  myCoursesResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/my-courses/refresh [post]
func (h *CourseHandler) Refresh(c echo.Context) error {
	return h.reconcile(c)
}

// reconcile runs a forced pass. A failed pass still answers 200 with the
// last known list, flagged stale.
func (h *CourseHandler) reconcile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	stale := false
	if err := h.enrollments.Reconcile(c.Request().Context(), true); err != nil {
		h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("forced reconciliation failed")
		stale = true
	}

	resp := myCoursesResponse{
		Courses:    h.enrollments.Courses(),
		Refreshing: h.enrollments.Refreshing(),
		Stale:      stale,
	}
	if t := h.enrollments.LastReconciled(); !t.IsZero() {
		resp.LastReconciled = &t
	}
	return c.JSON(http.StatusOK, resp)
}
