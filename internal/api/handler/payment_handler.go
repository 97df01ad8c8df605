package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const maxProofBytes = 10 << 20

// PaymentHandler handles payment proofs and their administrative review.
type PaymentHandler struct {
	payments ports.PaymentService
}

func NewPaymentHandler(payments ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Submit handles POST /v1/payments, a multipart form with course_id and file.
//
// @Summary      Submit a payment proof
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        course_id  formData  int   true  "Course id"
// @Param        file       formData  file  true  "Receipt"
// @Success      202        {object}  acceptedResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /v1/payments [post]
func (h *PaymentHandler) Submit(c echo.Context) error {
	courseID, err := strconv.ParseInt(c.FormValue("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course_id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxProofBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxProofBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}

	proof := ports.PaymentProof{CourseID: courseID, Filename: fh.Filename, Content: content}
	if err := h.payments.SubmitProof(c.Request().Context(), proof); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "payment proof submitted"})
}

// ListPayments handles GET /v1/admin/payments.
//
// @Summary      List payment proofs
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.Payment
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/payments [get]
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	payments, err := h.payments.ListPayments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// Review handles PUT /v1/admin/payments/:id.
//
// @Summary      Review a payment proof
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      int            true  "Payment id"
// @Param        body  body      reviewRequest  true  "New status"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/payments/{id} [put]
func (h *PaymentHandler) Review(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.payments.Review(c.Request().Context(), id, domain.PaymentStatus(*req.Status)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEnrollments handles GET /v1/admin/enrollments.
//
// @Summary      List enrollments
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.Enrollment
// @Router       /v1/admin/enrollments [get]
func (h *PaymentHandler) ListEnrollments(c echo.Context) error {
	enrollments, err := h.payments.ListEnrollments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollments)
}

// DeleteEnrollment handles DELETE /v1/admin/enrollments/:id.
//
// @Summary      Delete an enrollment
// @Tags         admin
// @Param        id  path  int  true  "Enrollment id"
// @Success      204
// @Router       /v1/admin/enrollments/{id} [delete]
func (h *PaymentHandler) DeleteEnrollment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.payments.DeleteEnrollment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
