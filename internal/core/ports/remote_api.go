package ports

import (
	"context"
	"time"
)

// RequestOption tweaks a single remote call.
type RequestOption func(*RequestOptions)

// RequestOptions carries per-call overrides.
type RequestOptions struct {
	Timeout time.Duration
	Headers map[string]string
}

// WithTimeout overrides the client's default request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *RequestOptions) { o.Timeout = d }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// FormFile is a file part of a multipart upload.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// Form is a multipart/form-data request body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// RemoteAPI is the uniform request surface of the remote REST API.
//
// Get is stale-while-revalidate: a cached response is returned immediately
// and refreshed in the background, so callers may observe a stale page.
// Fetch always goes to the network and never touches the cache.
type RemoteAPI interface {
	Get(ctx context.Context, path string, out any, opts ...RequestOption) error
	Fetch(ctx context.Context, path string, out any, opts ...RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Delete(ctx context.Context, path string, opts ...RequestOption) error
	ClearCache()
}
