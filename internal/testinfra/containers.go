package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MongoImage    = "mongo:7"
	MongoUser     = "conncache"
	MongoPassword = "conncache"

	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"
)

type MongoContainer struct {
	*mongodb.MongoDBContainer
	ConnString string
}

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartMongo runs a single-node MongoDB with password authentication.
func StartMongo(ctx context.Context) (*MongoContainer, error) {
	ctr, err := mongodb.Run(ctx,
		MongoImage,
		mongodb.WithUsername(MongoUser),
		mongodb.WithPassword(MongoPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("start mongodb: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &MongoContainer{MongoDBContainer: ctr, ConnString: connStr}, nil
}

// StartPostgres runs PostgreSQL without TLS.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
