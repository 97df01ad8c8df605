package domain

import "errors"

// Failure taxonomy shared by the transport and the services. Transport errors
// match these with errors.Is so the core never imports the HTTP layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrAuthExpired       = errors.New("authentication expired")
	ErrTimeout           = errors.New("request timed out")
	ErrNetwork           = errors.New("network failure")
	ErrParse             = errors.New("malformed payload")
	ErrUnauthenticated   = errors.New("sign in required")
	ErrForbidden         = errors.New("access forbidden")
	ErrMalformedIdentity = errors.New("identity payload has no usable user id")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("login response carried no token")
	ErrInvalidInput       = errors.New("invalid input")
)
