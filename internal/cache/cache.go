package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vvka-141/conncache/internal/db"
	"github.com/vvka-141/conncache/internal/logging"
	"github.com/vvka-141/conncache/internal/metrics"
	"github.com/vvka-141/conncache/pkg/conncache"
)

// State is the lifecycle position of a Cache.
type State int

const (
	// Unconnected: no connection and no attempt in flight.
	Unconnected State = iota
	// Connecting: an attempt is in flight.
	Connecting
	// Connected: a connection is stored.
	Connected
	// Closed: Close was called.
	Closed
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// errNoConnection reports a connector that returned neither a connection nor an error.
var errNoConnection = errors.New("connector returned no connection")

// attempt is the in-flight connection attempt shared by all joiners. Its id
// is the singleflight key, so a new attempt never joins a finished one.
type attempt struct {
	id     string
	target string
	driver string
}

// Cache memoizes one connection per process.
type Cache struct {
	connector   conncache.Connector
	opts        conncache.ConnectOptions
	logger      conncache.Logger
	collector   metrics.Collector
	environment string
	now         func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	conn    conncache.Connection
	pending *attempt
	closed  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. Defaults to a NullLogger.
func WithLogger(l conncache.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithCollector sets the metrics collector. Defaults to a NoopCollector.
func WithCollector(m metrics.Collector) Option {
	return func(c *Cache) {
		c.collector = m
	}
}

// WithEnvironment sets the environment name reported when a connection is established.
func WithEnvironment(env string) Option {
	return func(c *Cache) {
		c.environment = env
	}
}

// WithConnectTimeout sets the driver deadline for each attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.opts.ConnectTimeout = d
	}
}

// WithAppName sets the client application name sent to the server.
func WithAppName(name string) Option {
	return func(c *Cache) {
		c.opts.AppName = name
	}
}

// New creates a Cache that dials through connector.
// Panics if connector is nil.
func New(connector conncache.Connector, opts ...Option) *Cache {
	if connector == nil {
		panic("connector cannot be nil")
	}
	c := &Cache{
		connector: connector,
		opts: conncache.ConnectOptions{
			BufferCommands: false,
			ConnectTimeout: conncache.DefaultConnectTimeout,
			AppName:        conncache.DefaultAppName,
		},
		logger:      logging.NewNullLogger(),
		collector:   metrics.NoopCollector{},
		environment: conncache.DefaultEnvironment,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Queuing commands before the server is reachable is never allowed.
	c.opts.BufferCommands = false
	return c
}

// EnsureConnection returns the process-wide connection, dialing uri if none
// is stored yet.
//
// An empty uri fails with a *conncache.ConfigError before any state is
// touched. A driver failure is returned as a *conncache.ConnectionError and
// leaves the cache Unconnected, so the next call starts a new attempt.
// Configuration errors reported by the connector are returned unwrapped.
//
// Once connected, later calls return the stored handle even if uri differs.
//
// ctx bounds only this caller's wait. The shared attempt runs detached from
// ctx cancellation and is limited by the driver connect timeout.
func (c *Cache) EnsureConnection(ctx context.Context, uri string) (conncache.Connection, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, &conncache.ConfigError{Reason: "connection string is empty"}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, conncache.ErrClosed
	}
	if c.conn != nil {
		conn := c.conn
		c.mu.Unlock()
		c.collector.IncrementCounter(metrics.HitsTotal, "driver", conn.Driver())
		return conn, nil
	}

	a := c.pending
	if a != nil {
		c.logger.Verbose("Joining in-flight connection attempt %s to %s", a.id, a.target)
		c.collector.IncrementCounter(metrics.JoinsTotal, "driver", a.driver)
	} else {
		a = &attempt{id: uuid.NewString(), target: db.RedactURI(uri), driver: db.DriverName(uri)}
		c.pending = a
	}

	// Registered under c.mu: pending is cleared under c.mu before the call
	// returns, so a visible pending attempt always has a live call to join.
	attemptCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(a.id, func() (interface{}, error) {
		return c.connect(attemptCtx, uri, a)
	})
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(conncache.Connection), nil
	}
}

// connect runs inside the singleflight group: one invocation per attempt.
func (c *Cache) connect(ctx context.Context, uri string, a *attempt) (conncache.Connection, error) {
	c.collector.IncrementCounter(metrics.AttemptsTotal, "driver", a.driver)
	c.logger.Verbose("Starting connection attempt %s to %s", a.id, a.target)

	start := c.now()
	conn, err := c.connector.Connect(ctx, uri, c.opts)
	elapsed := c.now().Sub(start)
	if err == nil && conn == nil {
		err = errNoConnection
	}

	c.mu.Lock()
	c.pending = nil
	if err != nil {
		c.mu.Unlock()
		c.collector.IncrementCounter(metrics.FailuresTotal, "driver", a.driver)
		c.logger.Error("Connection attempt %s to %s failed after %v: %v", a.id, a.target, elapsed.Round(time.Millisecond), err)
		if isConfigError(err) {
			return nil, err
		}
		return nil, &conncache.ConnectionError{Target: a.target, Attempt: a.id, Err: err}
	}
	if c.closed {
		c.mu.Unlock()
		if closeErr := conn.Close(ctx); closeErr != nil {
			c.logger.Error("Failed to close connection to %s opened after shutdown: %v", conn.Target(), closeErr)
		}
		return nil, conncache.ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	c.collector.RecordHistogram(metrics.ConnectDuration, elapsed.Seconds(), "driver", conn.Driver())
	c.logger.Info("Connected to Database %s - %s", c.environment, conn.Target())
	return conn, nil
}

// State reports the current lifecycle state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return Closed
	case c.conn != nil:
		return Connected
	case c.pending != nil:
		return Connecting
	default:
		return Unconnected
	}
}

// Connection returns the stored connection without dialing, or nil.
func (c *Cache) Connection() conncache.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Close tears down the stored connection and rejects further calls with
// conncache.ErrClosed. An attempt still in flight is closed when it lands.
// Closing twice is a no-op.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.logger.Verbose("Closing connection to %s", conn.Target())
	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("failed to close connection to %s: %w", conn.Target(), err)
	}
	return nil
}

func isConfigError(err error) bool {
	return errors.Is(err, conncache.ErrConfiguration) || errors.Is(err, conncache.ErrUnsupportedScheme)
}
