package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns limits concurrent connections held by the driver pool.
	DefaultMaxConns = 5

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps idle connections around for long-lived processes.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, opts conncache.ConnectOptions) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if opts.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.AppName != "" {
		if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
			poolConfig.ConnConfig.RuntimeParams["application_name"] = opts.AppName
		}
	}
}

// PostgresConnector connects to PostgreSQL through a pgx pool.
type PostgresConnector struct{}

// NewPostgresConnector creates a PostgresConnector.
func NewPostgresConnector() *PostgresConnector {
	return &PostgresConnector{}
}

// Connect opens a pool for uri and pings it before returning. pgx never
// queues statements for an unreachable server, so BufferCommands needs no
// driver option beyond the eager ping.
func (c *PostgresConnector) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	poolConfig, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, &conncache.ConfigError{Reason: "invalid PostgreSQL connection string", Err: err}
	}

	configurePool(poolConfig, opts)
	target := RedactURI(uri)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, conncache.DriverPostgres, target)
	}

	pingCtx, cancel := withTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, conncache.DriverPostgres, target)
	}

	return &PostgresConnection{pool: pool, target: target}, nil
}

// PostgresConnection is a connected pgx pool.
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PostgresConnection struct {
	pool   *pgxpool.Pool
	target string
}

// Pool exposes the driver pool.
func (p *PostgresConnection) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping acquires a connection and checks the server responds.
func (p *PostgresConnection) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", p.target, err)
	}
	return nil
}

// Close closes the pool. pgxpool.Close blocks until connections are released
// and takes no context.
func (p *PostgresConnection) Close(context.Context) error {
	p.pool.Close()
	return nil
}

// Driver returns conncache.DriverPostgres.
func (p *PostgresConnection) Driver() string { return conncache.DriverPostgres }

// Target returns the redacted connection string.
func (p *PostgresConnection) Target() string { return p.target }

var (
	_ conncache.Connector  = (*PostgresConnector)(nil)
	_ conncache.Connection = (*PostgresConnection)(nil)
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
