package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    int64
		wantErr bool
	}{
		{name: "id wins", payload: map[string]any{"id": float64(7), "userId": float64(9)}, want: 7},
		{name: "null id falls through", payload: map[string]any{"id": nil, "userId": float64(9)}, want: 9},
		{name: "pascal case", payload: map[string]any{"UserId": float64(11)}, want: 11},
		{name: "upper Id last", payload: map[string]any{"Id": float64(12)}, want: 12},
		{name: "numeric string", payload: map[string]any{"userId": "42"}, want: 42},
		{name: "json number", payload: map[string]any{"id": json.Number("5")}, want: 5},
		{name: "missing", payload: map[string]any{"email": "a@b.c"}, wantErr: true},
		{name: "fractional", payload: map[string]any{"id": 1.5}, wantErr: true},
		{name: "garbage string", payload: map[string]any{"id": "abc"}, wantErr: true},
		{name: "zero", payload: map[string]any{"id": float64(0)}, wantErr: true},
		{name: "object", payload: map[string]any{"id": map[string]any{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUserID(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedIdentity) {
					t.Fatalf("expected ErrMalformedIdentity, got id=%d err=%v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if r := ParseRole(map[string]any{"role": float64(0)}); r != RoleAdmin {
		t.Errorf("expected admin, got %v", r)
	}
	if r := ParseRole(map[string]any{"Role": "1"}); r != RoleLearner {
		t.Errorf("expected learner, got %v", r)
	}
	if r := ParseRole(map[string]any{}); r != RoleUnknown {
		t.Errorf("expected unknown, got %v", r)
	}
}

func TestIsLearner(t *testing.T) {
	if IsLearner(nil) {
		t.Error("nil session must not be a learner")
	}
	if IsLearner(&Session{UserID: 1, Role: RoleAdmin}) {
		t.Error("admin must not be a learner")
	}
	if !IsLearner(&Session{UserID: 1, Role: RoleLearner}) {
		t.Error("learner expected")
	}
	if !IsLearner(&Session{UserID: 1, Role: RoleUnknown}) {
		t.Error("account without a role is treated as a learner")
	}
	if IsLearner(&Session{Role: RoleLearner}) {
		t.Error("session without user id must not be a learner")
	}
}

func TestPaymentApproved(t *testing.T) {
	if !(Payment{Status: PaymentApproved}).Approved() {
		t.Error("status 1 must be approved")
	}
	if !(Payment{State: PaymentApproved}).Approved() {
		t.Error("legacy state 1 must be approved")
	}
	if (Payment{Status: PaymentRejected, State: PaymentApproved}).Approved() {
		t.Error("status takes precedence over state")
	}
	if (Payment{}).Approved() {
		t.Error("pending must not be approved")
	}
}

func TestNewCourseCardDefaults(t *testing.T) {
	card := NewCourseCard(CourseDetail{ID: 3, Title: "Go"})
	if card.Category != defaultCategory || card.Image != defaultImage {
		t.Errorf("defaults not applied: %+v", card)
	}
	if card.Subtitle != "Go" {
		t.Errorf("subtitle should mirror title, got %q", card.Subtitle)
	}
}
