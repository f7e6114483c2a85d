package conncache

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Missing or invalid connection string
	ExitConnectionError = 11 // Failed to connect to database
)

const (
	// DefaultConnectTimeout bounds a single driver connection attempt.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultEnvironment is reported in the connection record when no
	// environment name is configured.
	DefaultEnvironment = "development"

	// DefaultAppName is sent to servers that accept a client application name.
	DefaultAppName = "conncache"

	// DefaultListenAddr is the serve command's default HTTP address.
	DefaultListenAddr = ":8080"
)

// Driver names reported by Connection.Driver.
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
)
