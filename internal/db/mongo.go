package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "test"

// MongoConnector connects to MongoDB deployments with the official driver.
type MongoConnector struct{}

// NewMongoConnector creates a MongoConnector.
func NewMongoConnector() *MongoConnector {
	return &MongoConnector{}
}

// Connect builds a client for uri and pings the primary before returning.
//
// With BufferCommands disabled the server selection timeout is bounded by
// ConnectTimeout, so operations against an unreachable deployment fail
// instead of waiting for the driver default. Values set in uri take
// precedence over opts.
func (c *MongoConnector) Connect(ctx context.Context, uri string, opts conncache.ConnectOptions) (conncache.Connection, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, &conncache.ConfigError{Reason: "invalid MongoDB connection string", Err: err}
	}

	clientOpts := options.Client()
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		if !opts.BufferCommands {
			clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
		}
	}
	clientOpts.ApplyURI(uri)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, &conncache.ConfigError{Reason: "invalid MongoDB client options", Err: err}
	}

	target := RedactURI(uri)

	pingCtx, cancel := withTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, wrapConnectionError(err, conncache.DriverMongoDB, target)
	}

	database := cs.Database
	if database == "" {
		database = DefaultMongoDatabase
	}

	return &MongoConnection{client: client, target: target, database: database}, nil
}

// MongoConnection is a connected MongoDB client.
type MongoConnection struct {
	client   *mongo.Client
	target   string
	database string
}

// Client exposes the driver client.
func (m *MongoConnection) Client() *mongo.Client {
	return m.client
}

// Database returns the database named in the connection string.
func (m *MongoConnection) Database() *mongo.Database {
	return m.client.Database(m.database)
}

// Ping checks the primary is reachable.
func (m *MongoConnection) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping %s: %w", m.target, err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoConnection) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Driver returns conncache.DriverMongoDB.
func (m *MongoConnection) Driver() string { return conncache.DriverMongoDB }

// Target returns the redacted connection string.
func (m *MongoConnection) Target() string { return m.target }

var (
	_ conncache.Connector  = (*MongoConnector)(nil)
	_ conncache.Connection = (*MongoConnection)(nil)
)
