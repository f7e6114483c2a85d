// Package server exposes the shared connection over HTTP.
//
// Endpoints:
//
//	GET /healthz  ensures the cached connection and pings it (200 or 503)
//	GET /metrics  Prometheus exposition of the cache counters
//
// Health checks go through the cache, so concurrent checks arriving before
// the first connection share a single driver attempt.
package server
