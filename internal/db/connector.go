package db

import (
	"context"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// Router dispatches each connection string to the connector for its scheme.
type Router struct {
	mongo    conncache.Connector
	postgres conncache.Connector
}

// NewConnector returns a Router serving MongoDB and PostgreSQL connection strings.
func NewConnector() *Router {
	return &Router{
		mongo:    NewMongoConnector(),
		postgres: NewPostgresConnector(),
	}
}

// NewRouter returns a Router with explicit per-driver connectors.
// A nil connector leaves that driver unsupported.
func NewRouter(mongo, postgres conncache.Connector) *Router {
	return &Router{mongo: mongo, postgres: postgres}
}

// Connect validates uri and delegates to the matching connector.
func (r *Router) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	if err := ValidateURI(uri); err != nil {
		return nil, err
	}

	var target conncache.Connector
	switch DriverName(uri) {
	case conncache.DriverMongoDB:
		target = r.mongo
	case conncache.DriverPostgres:
		target = r.postgres
	}
	if target == nil {
		return nil, &conncache.ConfigError{
			Reason: DriverName(uri) + " connections are not enabled",
			Err:    conncache.ErrUnsupportedScheme,
		}
	}
	return target.Connect(ctx, uri, opts)
}

// Verify Router implements Connector at compile time
var _ conncache.Connector = (*Router)(nil)
