package conncache

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	conn, err := c.EnsureConnection(ctx, uri)
//	if errors.Is(err, conncache.ErrConfiguration) {
//	    // fix the environment, retrying will not help
//	}
var (
	// ErrConfiguration indicates the connection string is missing or unusable.
	// Not retryable without operator intervention.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection indicates the driver failed to establish a connection.
	// Retryable by calling EnsureConnection again.
	ErrConnection = errors.New("connection failed")

	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("connection cache closed")

	// ErrUnsupportedScheme indicates no connector handles the URI scheme.
	ErrUnsupportedScheme = errors.New("unsupported connection string scheme")
)

// ConfigError reports a connection string problem. It matches ErrConfiguration.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError reports a failed connection attempt. It matches
// ErrConnection and unwraps to the driver error.
type ConnectionError struct {
	// Target is the redacted endpoint.
	Target string
	// Attempt identifies the shared attempt that failed.
	Attempt string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s (attempt %s): %v", ErrConnection, e.Target, e.Attempt, e.Err)
}

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrUnsupportedScheme):
		return ExitConfigError
	case errors.Is(err, ErrConnection):
		return ExitConnectionError
	}

	// cobra reports usage problems as plain errors
	errStr := err.Error()
	for _, pattern := range usagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}
