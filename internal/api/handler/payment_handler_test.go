package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

func multipartContext(t *testing.T, courseID string, file []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if courseID != "" {
		if err := w.WriteField("course_id", courseID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "receipt.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/payments", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return newEcho().NewContext(req, rec), rec
}

func TestPaymentHandler_Submit(t *testing.T) {
	payments := &stubPaymentService{}
	h := NewPaymentHandler(payments)

	c, rec := multipartContext(t, "7", []byte("png-bytes"))
	if err := h.Submit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(payments.submitted) != 1 {
		t.Fatalf("expected one proof, got %d", len(payments.submitted))
	}
	got := payments.submitted[0]
	if got.CourseID != 7 || got.Filename != "receipt.png" || string(got.Content) != "png-bytes" {
		t.Fatalf("unexpected proof: %+v", got)
	}
}

func TestPaymentHandler_Submit_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		courseID string
		file     []byte
	}{
		{name: "missing course", file: []byte("x")},
		{name: "bad course", courseID: "abc", file: []byte("x")},
		{name: "missing file", courseID: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &stubPaymentService{}
			c, _ := multipartContext(t, tt.courseID, tt.file)
			expectHTTPError(t, NewPaymentHandler(payments).Submit(c), http.StatusBadRequest)
			if len(payments.submitted) != 0 {
				t.Fatalf("nothing should be submitted")
			}
		})
	}
}

func TestPaymentHandler_Submit_Forbidden(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentService{err: domain.ErrForbidden})

	c, _ := multipartContext(t, "7", []byte("x"))
	if err := h.Submit(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPaymentHandler_Review(t *testing.T) {
	payments := &stubPaymentService{}
	h := NewPaymentHandler(payments)

	c, rec := jsonContext(newEcho(), http.MethodPut, "/v1/admin/payments/5", `{"status":1}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Review(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if payments.reviewed[5] != domain.PaymentApproved {
		t.Fatalf("expected payment 5 approved, got %v", payments.reviewed)
	}
}

func TestPaymentHandler_Review_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing status", body: `{}`},
		{name: "out of range", body: `{"status":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &stubPaymentService{}
			c, _ := jsonContext(newEcho(), http.MethodPut, "/v1/admin/payments/5", tt.body)
			c.SetParamNames("id")
			c.SetParamValues("5")
			expectHTTPError(t, NewPaymentHandler(payments).Review(c), http.StatusUnprocessableEntity)
			if len(payments.reviewed) != 0 {
				t.Fatalf("review should not be called")
			}
		})
	}
}

func TestPaymentHandler_DeleteEnrollment(t *testing.T) {
	payments := &stubPaymentService{}
	h := NewPaymentHandler(payments)

	c, rec := jsonContext(newEcho(), http.MethodDelete, "/v1/admin/enrollments/9", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	if err := h.DeleteEnrollment(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(payments.deleted) != 1 || payments.deleted[0] != 9 {
		t.Fatalf("unexpected result: code=%d deleted=%v", rec.Code, payments.deleted)
	}
}
