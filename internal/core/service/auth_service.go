package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const (
	pathLogin    = "/api/Authentification/login"
	pathRegister = "/api/Authentification/register"
)

// AuthService implements login, registration and logout against the remote
// API. The remote field casing is inconsistent, so every form is tried in
// camelCase first and PascalCase second.
type AuthService struct {
	api      ports.RemoteAPI
	storage  ports.Storage
	sessions ports.SessionService
	log      zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(api ports.RemoteAPI, storage ports.Storage, sessions ports.SessionService, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, storage: storage, sessions: sessions, log: log}
}

// Login exchanges credentials for a token, stores it and resolves the
// session behind it.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	candidates := []any{
		map[string]string{"email": email, "password": password},
		map[string]string{"Email": email, "Password": password},
	}

	var raw string
	var lastErr error
	for _, body := range candidates {
		if lastErr = s.api.Post(ctx, pathLogin, body, &raw); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return domain.Session{}, fmt.Errorf("login: %w", lastErr)
	}

	token := extractToken(raw)
	if token == "" {
		return domain.Session{}, domain.ErrNoToken
	}
	if err := s.storage.Set(ctx, domain.TokenKey, token); err != nil {
		return domain.Session{}, fmt.Errorf("login: store token: %w", err)
	}

	if err := s.sessions.Resolve(ctx); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	sess, ok := s.sessions.Session()
	if !ok {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	s.log.Info().Int64("user_id", sess.UserID).Msg("logged in")
	return sess, nil
}

// Register creates a remote account. The role defaults to learner.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) error {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return domain.ErrInvalidCredentials
	}
	role := domain.RoleLearner
	if in.Role != nil {
		role = *in.Role
	}

	lower := map[string]any{"email": email, "password": in.Password, "role": int(role)}
	upper := map[string]any{"Email": email, "Password": in.Password, "Role": int(role)}
	if in.FullName != "" {
		lower["fullName"] = in.FullName
		upper["FullName"] = in.FullName
	}

	var lastErr error
	for _, body := range []any{lower, upper} {
		if lastErr = s.api.Post(ctx, pathRegister, body, nil); lastErr == nil {
			s.log.Info().Str("email", email).Str("role", role.String()).Msg("account registered")
			return nil
		}
	}
	return fmt.Errorf("register: %w", lastErr)
}

// Logout signs out and drops every cached response.
func (s *AuthService) Logout(ctx context.Context) {
	s.sessions.Invalidate(ctx)
	s.api.ClearCache()
	s.log.Info().Msg("logged out")
}

// extractToken reads the token from a login response: the token field, then
// accessToken, then the body itself when it is a bare string.
func extractToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "{") {
		var body struct {
			Token       string `json:"token"`
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return ""
		}
		if body.Token != "" {
			return body.Token
		}
		return body.AccessToken
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	if json.Valid([]byte(raw)) {
		return ""
	}
	return raw
}
