package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/conncache/internal/server"
	"github.com/vvka-141/conncache/pkg/conncache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health and metrics endpoints over the shared connection",
	Long: `Serve starts an HTTP server that shares one lazily established connection.

Endpoints:
  GET /healthz   Ensures the connection and pings it.
                 200 with {"status":"ok"} when reachable,
                 503 with the error text otherwise.
  GET /metrics   Prometheus metrics (attempts, joins, hits, failures,
                 connect duration, Go runtime).

The server stops gracefully on SIGINT or SIGTERM and closes the connection.

Examples:
  conncache serve --addr :9090
  CONNCACHE_URI=postgres://localhost/app conncache serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

type serveFlagValues struct {
	uri     string
	addr    string
	timeout time.Duration
}

var serveFlags serveFlagValues

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.uri, "uri", "",
		"Connection string (mongodb://, mongodb+srv://, postgres://, postgresql://)\n"+
			"Alternative: $CONNCACHE_URI, $MONGODB_URI or $DATABASE_URL")
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "",
		"Listen address (default: server.addr in conncache.yaml, or "+conncache.DefaultListenAddr+")")
	serveCmd.Flags().DurationVar(&serveFlags.timeout, "timeout", 0,
		"Driver connect timeout per attempt (default: connection.connect_timeout, or 10s)")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(serveFlags.uri, serveFlags.timeout)
	if err != nil {
		return err
	}
	defer s.Close(context.Background()) //nolint:errcheck

	if s.uri == "" {
		s.logger.Info("No connection string configured; /healthz will report 503")
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	srv := server.New(s.cache, s.uri,
		server.WithGatherer(s.registry),
		server.WithLogger(s.logger),
	)
	return srv.ListenAndServe(ctx, resolveListenAddr(serveFlags.addr, s))
}

func resolveListenAddr(flagValue string, s *session) string {
	if flagValue != "" {
		return flagValue
	}
	if s.cfg != nil && s.cfg.Server.Addr != "" {
		return s.cfg.Server.Addr
	}
	return conncache.DefaultListenAddr
}
