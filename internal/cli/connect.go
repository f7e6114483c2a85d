package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/conncache/internal/retry"
	"github.com/vvka-141/conncache/pkg/conncache"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Establish the shared connection and report how it was obtained",
	Long: `Connect resolves the connection string, then issues --concurrency
simultaneous requests for the connection through one cache. All requests
that arrive while the first attempt is in flight join it, so a healthy run
reports a single driver attempt regardless of concurrency.

With --retries, each request retries transient failures (refused
connections, timeouts, unreachable servers) with exponential backoff.
Every retry starts a new attempt because failed attempts are not kept.

Examples:
  # Connect using $CONNCACHE_URI / $MONGODB_URI / $DATABASE_URL
  conncache connect

  # 50 concurrent callers sharing one attempt
  conncache connect --uri mongodb://localhost:27017/app --concurrency 50

  # Wait for a database that is still starting
  conncache connect --retries 5 --timeout 3s`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

type connectFlagValues struct {
	uri         string
	concurrency int
	retries     int
	timeout     time.Duration
}

var connectFlags = defaultConnectFlags()

func defaultConnectFlags() connectFlagValues {
	return connectFlagValues{concurrency: 1}
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringVar(&connectFlags.uri, "uri", "",
		"Connection string (mongodb://, mongodb+srv://, postgres://, postgresql://)\n"+
			"Alternative: $CONNCACHE_URI, $MONGODB_URI or $DATABASE_URL")
	connectCmd.Flags().IntVar(&connectFlags.concurrency, "concurrency", 1,
		"Number of concurrent callers requesting the connection")
	connectCmd.Flags().IntVar(&connectFlags.retries, "retries", 0,
		"Retries per caller for transient connection failures (0 = no retries)")
	connectCmd.Flags().DurationVar(&connectFlags.timeout, "timeout", 0,
		"Driver connect timeout per attempt (default: connection.connect_timeout, or 10s)")
}

func runConnect(cmd *cobra.Command, args []string) error {
	if connectFlags.concurrency < 1 {
		return &conncache.ConfigError{Reason: fmt.Sprintf("--concurrency must be at least 1, got %d", connectFlags.concurrency)}
	}
	if connectFlags.retries < 0 {
		return &conncache.ConfigError{Reason: fmt.Sprintf("--retries must not be negative, got %d", connectFlags.retries)}
	}

	s, err := newSession(connectFlags.uri, connectFlags.timeout)
	if err != nil {
		return err
	}
	defer s.Close(context.Background()) //nolint:errcheck

	ctx, stop := signalContext(cmd)
	defer stop()

	executor := retry.NewExecutor(
		retry.NewConnectionErrorClassifier(),
		retry.NewExponentialBackoff(connectFlags.retries,
			retry.WithInitialDelay(conncache.DefaultRetryInitialDelay),
			retry.WithMaxDelay(conncache.DefaultRetryMaxDelay),
		),
	).WithOnRetry(func(ev retry.RetryEvent) {
		if ev.AttemptID != "" {
			s.logger.Info("Connection attempt %s to %s failed, retrying in %s (retry %d/%d): %v",
				ev.AttemptID, ev.Target, ev.Delay, ev.Retry+1, connectFlags.retries, ev.Err)
			return
		}
		s.logger.Info("Connection attempt failed, retrying in %s (retry %d/%d): %v",
			ev.Delay, ev.Retry+1, connectFlags.retries, ev.Err)
	})

	started := time.Now()
	results := make([]conncache.Connection, connectFlags.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			return executor.Execute(gctx, func(ctx context.Context) error {
				conn, err := s.cache.EnsureConnection(ctx, s.uri)
				if err != nil {
					return err
				}
				results[i] = conn
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	conn := results[0]
	for _, other := range results[1:] {
		if other != conn {
			return fmt.Errorf("callers received different connections from one cache")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (%s) in %s: %d caller(s), %d driver attempt(s)\n",
		conn.Target(), conn.Driver(), time.Since(started).Round(time.Millisecond),
		connectFlags.concurrency, s.connector.Calls())
	return nil
}

// signalContext returns the command context cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
