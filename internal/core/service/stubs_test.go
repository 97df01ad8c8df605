package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Remote API stub
// ---------------------------------------------------------------------------

var errServer = errors.New("http 500: internal server error")

type handlerFunc func(ctx context.Context, body any) (any, error)

type recordedCall struct {
	Method string
	Path   string
	Body   any
}

type stubAPI struct {
	mu      sync.Mutex
	routes  map[string]handlerFunc
	calls   []recordedCall
	cleared int
}

func newStubAPI() *stubAPI {
	return &stubAPI{routes: make(map[string]handlerFunc)}
}

// on registers fn for "METHOD /path".
func (a *stubAPI) on(route string, fn handlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[route] = fn
}

func (a *stubAPI) respond(route string, body any) {
	a.on(route, func(context.Context, any) (any, error) { return body, nil })
}

func (a *stubAPI) fail(route string, err error) {
	a.on(route, func(context.Context, any) (any, error) { return nil, err })
}

func (a *stubAPI) count(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Method+" "+c.Path == route {
			n++
		}
	}
	return n
}

func (a *stubAPI) callsTo(route string) []recordedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []recordedCall
	for _, c := range a.calls {
		if c.Method+" "+c.Path == route {
			out = append(out, c)
		}
	}
	return out
}

func (a *stubAPI) clearedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cleared
}

func (a *stubAPI) do(ctx context.Context, method, path string, body, out any) error {
	route := method + " " + path
	a.mu.Lock()
	a.calls = append(a.calls, recordedCall{Method: method, Path: path, Body: body})
	fn := a.routes[route]
	a.mu.Unlock()

	if fn == nil {
		return domain.ErrNotFound
	}
	v, err := fn(ctx, body)
	if err != nil {
		return err
	}
	if out == nil || v == nil {
		return nil
	}
	if s, ok := out.(*string); ok {
		if str, ok := v.(string); ok {
			*s = str
			return nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if s, ok := out.(*string); ok {
		*s = string(raw)
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (a *stubAPI) Get(ctx context.Context, path string, out any, _ ...ports.RequestOption) error {
	return a.do(ctx, "GET", path, nil, out)
}

func (a *stubAPI) Fetch(ctx context.Context, path string, out any, _ ...ports.RequestOption) error {
	return a.do(ctx, "GET", path, nil, out)
}

func (a *stubAPI) Post(ctx context.Context, path string, body, out any, _ ...ports.RequestOption) error {
	return a.do(ctx, "POST", path, body, out)
}

func (a *stubAPI) Put(ctx context.Context, path string, body, out any, _ ...ports.RequestOption) error {
	return a.do(ctx, "PUT", path, body, out)
}

func (a *stubAPI) Patch(ctx context.Context, path string, body, out any, _ ...ports.RequestOption) error {
	return a.do(ctx, "PATCH", path, body, out)
}

func (a *stubAPI) Delete(ctx context.Context, path string, _ ...ports.RequestOption) error {
	return a.do(ctx, "DELETE", path, nil, nil)
}

func (a *stubAPI) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleared++
}

// gate blocks a handler until released, and reports when it was entered.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// wrap returns a handler that waits on the gate, then answers with body.
func (g *gate) wrap(body any) handlerFunc {
	return func(ctx context.Context, _ any) (any, error) {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
			return body, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ---------------------------------------------------------------------------
// Storage stub
// ---------------------------------------------------------------------------

type stubStorage struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
	sets   int
}

func newStubStorage() *stubStorage {
	return &stubStorage{data: make(map[string]string)}
}

func (s *stubStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *stubStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *stubStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// ---------------------------------------------------------------------------
// Session stubs
// ---------------------------------------------------------------------------

type stubSessions struct {
	mu          sync.Mutex
	session     domain.Session
	resolved    bool
	resolveErr  error
	resolves    int
	invalidated int
	onResolve   func() domain.Session
}

func (s *stubSessions) Resolve(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolves++
	if s.resolveErr != nil {
		return s.resolveErr
	}
	if s.onResolve != nil {
		s.session = s.onResolve()
		s.resolved = true
	}
	return nil
}

func (s *stubSessions) Invalidate(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
	s.session = domain.Session{}
	s.resolved = false
}

func (s *stubSessions) Session() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.resolved
}

func (s *stubSessions) State() ports.SessionState {
	if _, ok := s.Session(); ok {
		return ports.StateResolved
	}
	return ports.StateUnauthenticated
}

func (s *stubSessions) Initialized() bool { return true }

func (s *stubSessions) IsLearner() bool {
	sess, ok := s.Session()
	return ok && domain.IsLearner(&sess)
}

type stubReconciler struct {
	mu         sync.Mutex
	activated  []int64
	resets     int
	reconciles []bool
}

func (r *stubReconciler) Activate(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activated = append(r.activated, userID)
}

func (r *stubReconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *stubReconciler) Reconcile(_ context.Context, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciles = append(r.reconciles, force)
	return nil
}
