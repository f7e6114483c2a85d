// Package cache memoizes a database connection for the lifetime of a process.
//
// A Cache hands every caller the same Connection. The first call dials through
// the configured Connector; callers arriving while that attempt is in flight
// join it instead of dialing again, and calls after it succeeds return the
// stored handle without I/O. A failed attempt is forgotten so the next call
// dials afresh. The cache never retries on its own.
//
// # Example Usage
//
//	c := cache.New(db.NewConnector(),
//	    cache.WithLogger(logger),
//	    cache.WithEnvironment("production"),
//	)
//	defer c.Close(ctx)
//
//	conn, err := c.EnsureConnection(ctx, os.Getenv("MONGODB_URI"))
//
// # States
//
//	Unconnected -> Connecting -> Connected
//	Connecting  -> Unconnected   (attempt failed)
//	any         -> Closed        (Close)
//
// # Thread Safety
//
// Cache is safe for concurrent use. Construct one per process and share it.
package cache
