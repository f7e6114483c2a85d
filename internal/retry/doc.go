// Package retry drives caller-side retries of connection attempts.
//
// The connection cache never retries on its own: a failed attempt is
// forgotten and the next EnsureConnection call dials afresh. Callers that
// want to wait for a database to come up wrap EnsureConnection in an
// Executor, which classifies each failure and backs off between attempts.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewConnectionErrorClassifier(), retry.NewExponentialBackoff(5))
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    _, err := c.EnsureConnection(ctx, uri)
//	    return err
//	})
//
// # Error Classification
//
// ConnectionErrorClassifier treats network failures, timeouts, MongoDB
// network/timeout errors and PostgreSQL connection-class SQLSTATEs as
// transient. Configuration errors and a closed cache are fatal.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
