package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/api/handler"
	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

// RequireSession rejects requests until the resolver holds a session and
// injects that session into context.
func RequireSession(sessions ports.SessionService) echo.MiddlewareFunc {
	return guard(sessions, func(domain.Session) bool { return true })
}

// RequireLearner admits only non-administrator sessions.
func RequireLearner(sessions ports.SessionService) echo.MiddlewareFunc {
	return guard(sessions, func(s domain.Session) bool { return domain.IsLearner(&s) })
}

// RequireAdmin admits only administrator sessions.
func RequireAdmin(sessions ports.SessionService) echo.MiddlewareFunc {
	return guard(sessions, func(s domain.Session) bool { return s.Role == domain.RoleAdmin })
}

func guard(sessions ports.SessionService, allowed func(domain.Session) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := sessions.Session()
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ErrUnauthenticated.Error()})
			}
			if !allowed(sess) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			c.Set(handler.SessionKey, sess)
			return next(c)
		}
	}
}
