package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
)

// SessionKey is the echo context key under which the session middleware
// stores the resolved domain.Session.
const SessionKey = "session"

// ctxSession returns the session injected by the session middleware. Its
// absence means the route was registered without the middleware.
func ctxSession(c echo.Context) (domain.Session, error) {
	sess, ok := c.Get(SessionKey).(domain.Session)
	if !ok || sess.UserID <= 0 {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
	}
	return sess, nil
}

// paramID parses a positive integer path parameter.
func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
