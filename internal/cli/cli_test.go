package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/conncache/internal/config"
	"github.com/vvka-141/conncache/internal/logging"
	"github.com/vvka-141/conncache/pkg/conncache"
)

type fakeConn struct{ target string }

func (c *fakeConn) Ping(context.Context) error  { return nil }
func (c *fakeConn) Close(context.Context) error { return nil }
func (c *fakeConn) Driver() string              { return conncache.DriverMongoDB }
func (c *fakeConn) Target() string              { return c.target }

type fakeConnector struct {
	mu       sync.Mutex
	failures int
	delay    time.Duration
	uris     []string
	opts     []conncache.ConnectOptions
}

func (f *fakeConnector) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	f.mu.Lock()
	f.uris = append(f.uris, uri)
	f.opts = append(f.opts, opts)
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if fail {
		return nil, errors.New("dial tcp 127.0.0.1:27017: connect: connection refused")
	}
	return &fakeConn{target: "mongodb://localhost:27017/app"}, nil
}

// setupCLI isolates a test from the caller's environment, working directory
// and flag state, and installs connector as the driver.
func setupCLI(t *testing.T, connector *fakeConnector) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{"CONNCACHE_URI", "MONGODB_URI", "DATABASE_URL", "CONNCACHE_ENV", "APP_ENV"} {
		t.Setenv(name, "")
	}

	globalFlags = globalFlagValues{}
	connectFlags = defaultConnectFlags()
	serveFlags = serveFlagValues{}

	original := newConnector
	newConnector = func() conncache.Connector { return connector }
	t.Cleanup(func() { newConnector = original })

	return dir
}

func runConnectCaptured(t *testing.T) (string, error) {
	t.Helper()
	var out bytes.Buffer
	connectCmd.SetOut(&out)
	connectCmd.SetContext(context.Background())
	t.Cleanup(func() { connectCmd.SetOut(nil) })

	err := runConnect(connectCmd, nil)
	return out.String(), err
}

func TestConnect_ConcurrentCallersShareOneAttempt(t *testing.T) {
	connector := &fakeConnector{delay: 50 * time.Millisecond}
	setupCLI(t, connector)
	connectFlags.uri = "mongodb://localhost:27017/app"
	connectFlags.concurrency = 20

	out, err := runConnectCaptured(t)
	require.NoError(t, err)

	assert.Contains(t, out, "Connected to mongodb://localhost:27017/app (mongodb)")
	assert.Contains(t, out, "20 caller(s), 1 driver attempt(s)")
	assert.Len(t, connector.uris, 1)
}

func TestConnect_ForcesUnbufferedCommands(t *testing.T) {
	connector := &fakeConnector{}
	setupCLI(t, connector)
	connectFlags.uri = "mongodb://localhost:27017/app"
	connectFlags.timeout = 3 * time.Second

	_, err := runConnectCaptured(t)
	require.NoError(t, err)

	require.Len(t, connector.opts, 1)
	assert.False(t, connector.opts[0].BufferCommands)
	assert.Equal(t, 3*time.Second, connector.opts[0].ConnectTimeout)
	assert.Equal(t, conncache.DefaultAppName, connector.opts[0].AppName)
}

func TestConnect_MissingURI(t *testing.T) {
	connector := &fakeConnector{}
	setupCLI(t, connector)

	_, err := runConnectCaptured(t)
	require.Error(t, err)

	assert.ErrorIs(t, err, conncache.ErrConfiguration)
	assert.Equal(t, conncache.ExitConfigError, conncache.ExitCodeForError(err))
	assert.Empty(t, connector.uris, "no driver attempt for an empty connection string")
}

func TestConnect_URIFromEnvironment(t *testing.T) {
	connector := &fakeConnector{}
	setupCLI(t, connector)
	t.Setenv("MONGODB_URI", "mongodb://env-host/app")

	_, err := runConnectCaptured(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"mongodb://env-host/app"}, connector.uris)
}

func TestConnect_URIFromDotEnv(t *testing.T) {
	connector := &fakeConnector{}
	dir := setupCLI(t, connector)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CONNCACHE_URI=mongodb://dotenv-host/app\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CONNCACHE_URI") })
	os.Unsetenv("CONNCACHE_URI")

	_, err := runConnectCaptured(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"mongodb://dotenv-host/app"}, connector.uris)
}

func TestConnect_URIFromConfigFile(t *testing.T) {
	connector := &fakeConnector{}
	dir := setupCLI(t, connector)
	content := `connection:
  uri: mongodb://file-host/app
  app_name: orders-api
  connect_timeout: 4s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(content), 0644))

	_, err := runConnectCaptured(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"mongodb://file-host/app"}, connector.uris)
	assert.Equal(t, "orders-api", connector.opts[0].AppName)
	assert.Equal(t, 4*time.Second, connector.opts[0].ConnectTimeout)
}

func TestConnect_ExplicitConfigMissing(t *testing.T) {
	setupCLI(t, &fakeConnector{})
	globalFlags.configPath = "does-not-exist.yaml"
	connectFlags.uri = "mongodb://localhost/app"

	_, err := runConnectCaptured(t)
	assert.ErrorIs(t, err, conncache.ErrConfiguration)
}

func TestConnect_FailureWithoutRetries(t *testing.T) {
	connector := &fakeConnector{failures: 1}
	setupCLI(t, connector)
	connectFlags.uri = "mongodb://localhost:27017/app"

	_, err := runConnectCaptured(t)
	require.Error(t, err)

	assert.ErrorIs(t, err, conncache.ErrConnection)
	assert.Equal(t, conncache.ExitConnectionError, conncache.ExitCodeForError(err))
	assert.Len(t, connector.uris, 1)
}

func TestConnect_RetriesTransientFailures(t *testing.T) {
	connector := &fakeConnector{failures: 2}
	setupCLI(t, connector)
	connectFlags.uri = "mongodb://localhost:27017/app"
	connectFlags.retries = 3

	out, err := runConnectCaptured(t)
	require.NoError(t, err)

	assert.Contains(t, out, "3 driver attempt(s)")
}

func TestConnect_InvalidFlags(t *testing.T) {
	tests := []struct {
		name  string
		apply func()
	}{
		{"zero concurrency", func() { connectFlags.concurrency = 0 }},
		{"negative retries", func() { connectFlags.retries = -1 }},
		{"negative timeout", func() { connectFlags.timeout = -time.Second }},
		{"unknown log format", func() { globalFlags.logFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector := &fakeConnector{}
			setupCLI(t, connector)
			connectFlags.uri = "mongodb://localhost/app"
			tt.apply()

			_, err := runConnectCaptured(t)
			assert.ErrorIs(t, err, conncache.ErrConfiguration)
			assert.Empty(t, connector.uris)
		})
	}
}

func TestRootCmd_UsageErrors(t *testing.T) {
	tests := [][]string{
		{"connect", "--bogus"},
		{"connect", "extra-arg"},
		{"no-such-command"},
	}

	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			setupCLI(t, &fakeConnector{})
			rootCmd.SetArgs(args)
			rootCmd.SetErr(&bytes.Buffer{})
			t.Cleanup(func() {
				rootCmd.SetArgs(nil)
				rootCmd.SetErr(nil)
			})

			err := rootCmd.Execute()
			require.Error(t, err)
			assert.Equal(t, conncache.ExitUsageError, conncache.ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	setupCLI(t, &fakeConnector{})
	serveFlags.addr = "127.0.0.1:0"
	serveFlags.uri = "mongodb://localhost/app"

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	serveCmd.SetContext(ctx)

	assert.NoError(t, runServe(serveCmd, nil))
}

func TestResolveListenAddr(t *testing.T) {
	withCfg := &session{cfg: &config.ProjectConfig{Server: config.ServerConfig{Addr: ":9090"}}}
	noCfg := &session{}

	assert.Equal(t, ":7070", resolveListenAddr(":7070", withCfg))
	assert.Equal(t, ":9090", resolveListenAddr("", withCfg))
	assert.Equal(t, conncache.DefaultListenAddr, resolveListenAddr("", noCfg))
}

func TestNewLogger(t *testing.T) {
	l, flush, err := newLogger("", false, nil)
	require.NoError(t, err)
	assert.IsType(t, &logging.ConsoleLogger{}, l)
	flush()

	l, flush, err = newLogger("JSON", true, nil)
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapLogger{}, l)
	flush()

	cfg := &config.ProjectConfig{Log: config.LogConfig{Format: "json"}}
	l, _, err = newLogger("", false, cfg)
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapLogger{}, l)

	l, _, err = newLogger("text", false, cfg)
	require.NoError(t, err)
	assert.IsType(t, &logging.ConsoleLogger{}, l, "flag wins over config")

	_, _, err = newLogger("yaml", false, nil)
	assert.ErrorIs(t, err, conncache.ErrConfiguration)
}
