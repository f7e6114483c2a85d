package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vvka-141/conncache/internal/cache"
	"github.com/vvka-141/conncache/internal/config"
	"github.com/vvka-141/conncache/internal/db"
	"github.com/vvka-141/conncache/internal/logging"
	"github.com/vvka-141/conncache/internal/metrics"
	"github.com/vvka-141/conncache/pkg/conncache"
)

// newConnector builds the driver connector. Tests replace it.
var newConnector = func() conncache.Connector { return db.NewConnector() }

// session holds everything a command needs to talk to the database.
type session struct {
	cfg       *config.ProjectConfig
	logger    conncache.Logger
	registry  *prometheus.Registry
	connector *countingConnector
	cache     *cache.Cache
	uri       string
	flush     func()
}

// newSession resolves configuration and builds the shared cache.
// A zero timeout falls back to connection.connect_timeout.
func newSession(uriFlag string, timeout time.Duration) (*session, error) {
	cfg, err := loadProjectConfig(globalFlags.configPath)
	if err != nil {
		return nil, err
	}

	logger, flush, err := newLogger(globalFlags.logFormat, globalFlags.verbose, cfg)
	if err != nil {
		return nil, err
	}

	if timeout == 0 {
		timeout, err = cfg.ConnectTimeout()
		if err != nil {
			return nil, err
		}
	} else if timeout < 0 {
		return nil, &conncache.ConfigError{Reason: fmt.Sprintf("--timeout must be positive, got %s", timeout)}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	environment := config.ResolveEnvironment(cfg)
	connector := &countingConnector{inner: newConnector()}
	c := cache.New(connector,
		cache.WithLogger(logger),
		cache.WithCollector(metrics.NewPrometheusCollector(registry)),
		cache.WithEnvironment(environment),
		cache.WithConnectTimeout(timeout),
		cache.WithAppName(config.ResolveAppName(cfg)),
	)

	uri := config.ResolveURI(uriFlag, cfg)
	logger.Verbose("Environment: %s, connect timeout: %s", environment, timeout)
	if uri != "" {
		logger.Verbose("Connection string: %s", db.RedactURI(uri))
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		connector: connector,
		cache:     c,
		uri:       uri,
		flush:     flush,
	}, nil
}

// Close tears down the cached connection and flushes the logger.
func (s *session) Close(ctx context.Context) error {
	err := s.cache.Close(ctx)
	s.flush()
	return err
}

// loadProjectConfig loads godotenv and project configuration.
// Returns nil config if ./conncache.yaml does not exist (not an error).
// An explicit path must exist.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, &conncache.ConfigError{Reason: fmt.Sprintf("config file %s not found", path)}
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil // Config file not found is not an error
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}

// newLogger picks the console or JSON logger. The flag wins over log.format.
func newLogger(format string, verbose bool, cfg *config.ProjectConfig) (conncache.Logger, func(), error) {
	if cfg != nil {
		if format == "" {
			format = cfg.Log.Format
		}
		verbose = verbose || cfg.Log.Verbose
	}

	switch strings.ToLower(format) {
	case "", "text":
		return logging.NewConsoleLogger(verbose), func() {}, nil
	case "json":
		l := logging.NewZapLogger(os.Stderr, verbose)
		return l, func() { _ = l.Sync() }, nil
	default:
		return nil, nil, &conncache.ConfigError{Reason: fmt.Sprintf("unknown log format %q (expected text or json)", format)}
	}
}

// countingConnector counts driver invocations for reporting.
type countingConnector struct {
	inner conncache.Connector
	calls atomic.Int64
}

func (c *countingConnector) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	c.calls.Add(1)
	return c.inner.Connect(ctx, uri, opts)
}

// Calls returns the number of driver invocations so far.
func (c *countingConnector) Calls() int64 {
	return c.calls.Load()
}
