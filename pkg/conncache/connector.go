package conncache

import (
	"context"
	"time"
)

// Connection is a live, usable link to a database.
// Implementations wrap a driver client and must be safe for concurrent use.
type Connection interface {
	// Ping verifies the server is reachable through this connection.
	Ping(ctx context.Context) error

	// Close releases the driver resources held by the connection.
	Close(ctx context.Context) error

	// Driver names the backing driver ("mongodb", "postgres").
	Driver() string

	// Target identifies the endpoint with credentials redacted. Safe to log.
	Target() string
}

// ConnectOptions are passed to a Connector for every connection attempt.
type ConnectOptions struct {
	// BufferCommands controls whether the driver may hand back a handle that
	// queues operations until the server is reachable. When false the
	// connector must verify readiness before returning and operations issued
	// against an unreachable server must fail instead of waiting.
	BufferCommands bool

	// ConnectTimeout is the driver deadline for a single attempt.
	// Zero means the driver default.
	ConnectTimeout time.Duration

	// AppName is reported to the server where the driver supports it.
	AppName string
}

// Connector establishes connections for a connection string.
type Connector interface {
	// Connect dials the database identified by uri. The returned Connection
	// is owned by the caller.
	Connect(ctx context.Context, uri string, opts ConnectOptions) (Connection, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, uri string, opts ConnectOptions) (Connection, error)

// Connect calls f(ctx, uri, opts).
func (f ConnectorFunc) Connect(ctx context.Context, uri string, opts ConnectOptions) (Connection, error) {
	return f(ctx, uri, opts)
}
