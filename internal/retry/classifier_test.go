package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/conncache/pkg/conncache"
)

func TestConnectionErrorClassifier_IsTransient(t *testing.T) {
	classifier := NewConnectionErrorClassifier()

	tests := []struct {
		name        string
		err         error
		isTransient bool
	}{
		{"nil", nil, false},
		{"configuration error", &conncache.ConfigError{Reason: "connection string is empty"}, false},
		{"unsupported scheme", fmt.Errorf("x: %w", conncache.ErrUnsupportedScheme), false},
		{"closed cache", conncache.ErrClosed, false},
		{"caller cancelled", context.Canceled, false},
		{"pg connection failure (08006)", &pgconn.PgError{Code: "08006"}, true},
		{"pg too many connections (53300)", &pgconn.PgError{Code: "53300"}, true},
		{"pg cannot connect now (57P03)", &pgconn.PgError{Code: "57P03"}, true},
		{"pg invalid password (28P01)", &pgconn.PgError{Code: "28P01"}, false},
		{"pg database missing (3D000)", &pgconn.PgError{Code: "3D000"}, false},
		{
			"pg error inside connection error",
			&conncache.ConnectionError{Target: "postgres://db", Attempt: "a", Err: &pgconn.PgError{Code: "08001"}},
			true,
		},
		{
			"connection refused op error",
			&net.OpError{Op: "dial", Net: "tcp", Err: &wrappedErrno{syscall.ECONNREFUSED}},
			true,
		},
		{
			"connection reset op error",
			&net.OpError{Op: "read", Net: "tcp", Err: &wrappedErrno{syscall.ECONNRESET}},
			true,
		},
		{"timeout dns error", &net.DNSError{Err: "timeout", Name: "db", IsTimeout: true}, true},
		{"temporary dns error", &net.DNSError{Err: "server misbehaving", Name: "db", IsTemporary: true}, true},
		{"permanent dns error", &net.DNSError{Err: "no such host", Name: "db", IsNotFound: true}, false},
		{"server selection message", errors.New("server selection error: context deadline exceeded"), true},
		{"driver timeout deadline", context.DeadlineExceeded, true},
		{
			"wrapped refused message",
			&conncache.ConnectionError{Target: "mongodb://db", Attempt: "a", Err: errors.New("connection refused to mongodb://db")},
			true,
		},
		{"auth failure", errors.New("authentication failed for mongodb://db"), false},
		{"unknown", errors.New("something unexpected"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTransient, classifier.IsTransient(tt.err))
		})
	}
}

// wrappedErrno makes errors.Is reach the errno through a wrapper, the way
// os.SyscallError does.
type wrappedErrno struct{ errno syscall.Errno }

func (w *wrappedErrno) Error() string { return w.errno.Error() }
func (w *wrappedErrno) Unwrap() error { return w.errno }
