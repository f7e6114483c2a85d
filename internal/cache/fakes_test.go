package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vvka-141/conncache/internal/db"
	"github.com/vvka-141/conncache/pkg/conncache"
)

var errDriverTimeout = errors.New("DriverTimeout")

type fakeConn struct {
	id       int
	target   string
	closed   atomic.Bool
	closeErr error
}

func (f *fakeConn) Ping(context.Context) error { return nil }

func (f *fakeConn) Close(context.Context) error {
	f.closed.Store(true)
	return f.closeErr
}

func (f *fakeConn) Driver() string { return conncache.DriverMongoDB }

func (f *fakeConn) Target() string { return f.target }

// fakeConnector counts invocations. failures lists per-call errors; calls
// beyond the list succeed. When gate is set each call blocks until it closes.
type fakeConnector struct {
	mu       sync.Mutex
	calls    int
	failures []error
	gate     chan struct{}
	started  chan struct{}
	opts     []conncache.ConnectOptions
	ctxErrs  []error
	closeErr error
}

func newFakeConnector(failures ...error) *fakeConnector {
	return &fakeConnector{failures: failures, started: make(chan struct{}, 16)}
}

func (f *fakeConnector) gated() *fakeConnector {
	f.gate = make(chan struct{})
	return f
}

func (f *fakeConnector) release() { close(f.gate) }

func (f *fakeConnector) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.opts = append(f.opts, opts)
	gate := f.gate
	f.mu.Unlock()

	f.started <- struct{}{}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()

	if n <= len(f.failures) && f.failures[n-1] != nil {
		return nil, f.failures[n-1]
	}
	return &fakeConn{id: n, target: db.RedactURI(uri), closeErr: f.closeErr}, nil
}

func (f *fakeConnector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingCollector records counter increments by name.
type countingCollector struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingCollector() *countingCollector {
	return &countingCollector{counts: make(map[string]int)}
}

func (c *countingCollector) IncrementCounter(name string, _ ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

func (c *countingCollector) RecordHistogram(string, float64, ...string) {}

func (c *countingCollector) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// hookLogger calls onJoin when a caller reports joining an attempt. The
// cache logs that while registering the joiner.
type hookLogger struct {
	onJoin func()
}

func (h *hookLogger) Verbose(format string, args ...interface{}) {
	if h.onJoin != nil && strings.HasPrefix(format, "Joining") {
		h.onJoin()
	}
}

func (h *hookLogger) Info(string, ...interface{})  {}
func (h *hookLogger) Error(string, ...interface{}) {}
