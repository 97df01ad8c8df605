package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

// SessionHandler exposes login, registration, logout and the resolved
// session state.
type SessionHandler struct {
	auth     ports.AuthService
	sessions ports.SessionService
}

func NewSessionHandler(auth ports.AuthService, sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions}
}

// Login signs in against the remote API and resolves the session.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.auth.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.snapshot())
}

// Register creates a remote account. It does not sign in.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	in := ports.RegisterInput{FullName: req.FullName, Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}
	if err := h.auth.Register(c.Request().Context(), in); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, acceptedResponse{Message: "account created"})
}

// Logout clears the stored token and every cached response.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.auth.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Get reports the resolver state.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshot())
}

func (h *SessionHandler) snapshot() sessionResponse {
	resp := sessionResponse{
		State:       h.sessions.State().String(),
		Initialized: h.sessions.Initialized(),
		Learner:     h.sessions.IsLearner(),
	}
	if sess, ok := h.sessions.Session(); ok {
		resp.UserID = sess.UserID
		resp.Role = sess.Role.String()
	}
	return resp
}
