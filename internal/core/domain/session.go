package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TokenKey is the durable storage key holding the bearer token.
const TokenKey = "auth_token"

// Role is the numeric account role reported by the identity endpoint.
type Role int

const (
	RoleUnknown Role = -1
	RoleAdmin   Role = 0
	RoleLearner Role = 1
)

// String returns the role name used by the control API.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUnknown:
		return "unknown"
	default:
		return "learner"
	}
}

// Session is the identity resolved from the stored bearer token.
type Session struct {
	UserID int64 `json:"userId"`
	Role   Role  `json:"role"`
}

// IsLearner is the one place that decides whether enrollment applies to a
// session. Administrators never have learner enrollments.
func IsLearner(s *Session) bool {
	return s != nil && s.UserID > 0 && s.Role != RoleAdmin
}

// userIDFields lists the accepted identifier fields in priority order. The
// upstream API is inconsistent about casing, so the first non-null one wins.
var userIDFields = []string{"id", "userId", "UserId", "Id"}

// NormalizeUserID extracts the user id from an identity payload. Absence of
// every candidate field, or a value that is not a positive integer, is a
// hard failure.
func NormalizeUserID(payload map[string]any) (int64, error) {
	for _, field := range userIDFields {
		v, ok := payload[field]
		if !ok || v == nil {
			continue
		}
		id, err := coerceInt(v)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: field %q = %v", ErrMalformedIdentity, field, v)
		}
		return id, nil
	}
	return 0, ErrMalformedIdentity
}

// ParseRole reads the role field, returning RoleUnknown when absent or not
// numeric.
func ParseRole(payload map[string]any) Role {
	for _, field := range []string{"role", "Role"} {
		v, ok := payload[field]
		if !ok || v == nil {
			continue
		}
		n, err := coerceInt(v)
		if err != nil {
			return RoleUnknown
		}
		return Role(n)
	}
	return RoleUnknown
}

func coerceInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, fmt.Errorf("non-integer number %v", t)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
