// Package apiclient executes requests against the remote REST API: bearer
// authorization from durable storage, per-request timeouts, a uniform error
// shape and a stale-while-revalidate GET cache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/imene253/AI-TECH-DZ2/internal/api/metrics"
	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

// DefaultTimeout applies when neither the client nor the call sets one.
const DefaultTimeout = 15 * time.Second

// authExemptPath matches the only endpoints that never carry the bearer token.
var authExemptPath = regexp.MustCompile(`(?i)/api/Authentification/(login|register)\b`)

// Config captures the settings of a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements ports.RemoteAPI.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	storage ports.Storage
	log     zerolog.Logger

	cache         *responseCache
	revalidations singleflight.Group
	background    sync.WaitGroup
	baseCtx       context.Context
	cancel        context.CancelFunc

	onAuthExpired atomic.Pointer[func()]
}

var _ ports.RemoteAPI = (*Client)(nil)

// New creates a Client. The token is read from storage on every request so a
// login or logout elsewhere takes effect immediately.
func New(cfg Config, storage ports.Storage, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		http:    hc,
		storage: storage,
		log:     log,
		cache:   newResponseCache(),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// OnAuthExpired registers fn to run after a 401/403 cleared the stored token.
func (c *Client) OnAuthExpired(fn func()) {
	c.onAuthExpired.Store(&fn)
}

// Get serves path from the cache when possible and refreshes the entry in
// the background; otherwise it fetches, caches and returns the fresh body.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...ports.RequestOption) error {
	key := http.MethodGet + " " + path
	if body, gen, ok := c.cache.get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		c.revalidate(key, path, gen, opts)
		return decode(body, out)
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	gen := c.cache.gen()
	body, err := c.request(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return err
	}
	c.cache.set(key, body, gen)
	return decode(body, out)
}

// revalidate refreshes a cached entry after the caller was already served
// the cached body, which may therefore be a stale page. Failures are logged
// and discarded; the entry keeps its last good value. Concurrent
// revalidations of one path share a single request.
func (c *Client) revalidate(key, path string, gen uint64, opts []ports.RequestOption) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		_, _, _ = c.revalidations.Do(key, func() (any, error) {
			body, err := c.request(c.baseCtx, http.MethodGet, path, nil, opts...)
			if err != nil {
				metrics.CacheRevalidationsTotal.WithLabelValues("error").Inc()
				c.log.Debug().Err(err).Str("path", path).Msg("background revalidation failed")
				return nil, nil
			}
			if !c.cache.set(key, body, gen) {
				metrics.CacheRevalidationsTotal.WithLabelValues("discarded").Inc()
				return nil, nil
			}
			metrics.CacheRevalidationsTotal.WithLabelValues("ok").Inc()
			return nil, nil
		})
	}()
}

// Fetch performs an uncached GET.
func (c *Client) Fetch(ctx context.Context, path string, out any, opts ...ports.RequestOption) error {
	body, err := c.request(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...ports.RequestOption) error {
	return c.send(ctx, http.MethodPost, path, body, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...ports.RequestOption) error {
	return c.send(ctx, http.MethodPut, path, body, out, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...ports.RequestOption) error {
	return c.send(ctx, http.MethodPatch, path, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...ports.RequestOption) error {
	_, err := c.request(ctx, http.MethodDelete, path, nil, opts...)
	return err
}

// ClearCache drops every cached GET response. Revalidations already in
// flight will not repopulate it.
func (c *Client) ClearCache() {
	c.cache.clear()
}

// WaitIdle blocks until background revalidations have finished.
func (c *Client) WaitIdle() {
	c.background.Wait()
}

// Close cancels background revalidations and waits for them.
func (c *Client) Close() {
	c.cancel()
	c.background.Wait()
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, opts []ports.RequestOption) error {
	raw, err := c.request(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// request executes one call and returns the raw response body of a 2xx.
func (c *Client) request(ctx context.Context, method, path string, body any, opts ...ports.RequestOption) ([]byte, error) {
	o := ports.RequestOptions{Timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Timeout <= 0 {
		o.Timeout = c.timeout
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.url(path), payload)
	if err != nil {
		return nil, &APIError{Status: StatusNetwork, Message: err.Error(), cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !authExemptPath.MatchString(path) {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range o.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err == nil {
		defer resp.Body.Close()
		var raw []byte
		raw, err = io.ReadAll(resp.Body)
		metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err == nil {
			return c.handleResponse(ctx, method, path, resp, raw)
		}
	}

	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "timeout").Inc()
		return nil, &APIError{Status: StatusTimeout, Message: "request timed out", cause: domain.ErrTimeout}
	}
	metrics.APIRequestsTotal.WithLabelValues(method, "network").Inc()
	return nil, &APIError{Status: StatusNetwork, Message: err.Error(), cause: err}
}

func (c *Client) handleResponse(ctx context.Context, method, path string, resp *http.Response, raw []byte) ([]byte, error) {
	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Data: errorData(resp.Header.Get("Content-Type"), raw)}
	apiErr.Message = errorMessage(apiErr.Data, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.expireToken(ctx, path)
	}
	return nil, apiErr
}

// token reads the bearer token. Unreadable storage degrades to no token.
func (c *Client) token(ctx context.Context) string {
	token, err := c.storage.Get(ctx, domain.TokenKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.log.Debug().Err(err).Msg("token read failed")
		}
		return ""
	}
	return token
}

func (c *Client) expireToken(ctx context.Context, path string) {
	if err := c.storage.Delete(context.WithoutCancel(ctx), domain.TokenKey); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear expired token")
	}
	c.log.Info().Str("path", path).Msg("authorization rejected, token cleared")
	if fn := c.onAuthExpired.Load(); fn != nil {
		(*fn)()
	}
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *ports.Form:
		return encodeForm(b)
	case ports.Form:
		return encodeForm(&b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(buf), "application/json", nil
	}
}

func encodeForm(f *ports.Form) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// decode fills out from a 2xx body. A *string receives a JSON string's
// value, or the raw body text for anything else.
func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if s, ok := out.(*string); ok {
		if err := json.Unmarshal(raw, s); err != nil {
			*s = string(raw)
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return nil
}

func errorData(contentType string, raw []byte) any {
	if strings.Contains(contentType, "application/json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
		return nil
	}
	return string(raw)
}

func errorMessage(data any, status int) string {
	if m, ok := data.(map[string]any); ok {
		for _, field := range []string{"message", "error", "title"} {
			if s, ok := m[field].(string); ok && s != "" {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}
