// Package db provides the driver connectors behind the connection cache.
//
// Connection strings are routed by scheme:
//   - mongodb://, mongodb+srv:// to MongoConnector (official MongoDB Go driver)
//   - postgres://, postgresql:// to PostgresConnector (pgx pool)
//
// Every connector pings the server before returning, so a Connection handed
// to a caller is ready for use. Driver errors are wrapped with guidance on
// likely causes; targets in messages have credentials redacted.
package db
