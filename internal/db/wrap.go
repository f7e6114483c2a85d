package db

import (
	"fmt"
	"strings"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
func wrapConnectionError(err error, driver, target string) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - %s is not running
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, target, serverName(driver), err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host in %s

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable (mongodb+srv:// needs SRV records)
  - Network connection issue

Original error: %w`, target, err)

	case strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "auth error") ||
		strings.Contains(errStr, "unable to authenticate"):
		return fmt.Errorf(`authentication failed for %s

Possible causes:
  - Wrong password or username in the connection string
  - User is defined in a different authentication database (check authSource)
  - User does not have access to the database

Original error: %w`, target, err)

	case strings.Contains(errStr, "server selection"):
		return fmt.Errorf(`no reachable server for %s

Possible causes:
  - Deployment is down or still starting
  - replicaSet name in the connection string does not match the server
  - IP address not allowed by the cluster's access list

Original error: %w`, target, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, target, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls") || strings.Contains(errStr, "x509"):
		return fmt.Errorf(`SSL/TLS connection error for %s

Possible causes:
  - Server requires TLS but the connection string does not enable it
  - Certificate verification failed
  - Client certificates missing

Original error: %w`, target, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to %s

Possible causes:
  - Server connection limit reached
  - Stale connections from other processes

Original error: %w`, target, err)

	default:
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}
}

func serverName(driver string) string {
	switch driver {
	case conncache.DriverMongoDB:
		return "MongoDB"
	case conncache.DriverPostgres:
		return "PostgreSQL"
	default:
		return "The database server"
	}
}
