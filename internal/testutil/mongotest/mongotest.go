//go:build integration

// Package mongotest starts a throwaway MongoDB replica set for integration
// tests and migrates a fresh database on it.
package mongotest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	mongoMigration "cabins/internal/migrations/mongo"
	"cabins/pkg/config"
	"cabins/pkg/logger"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Image          = "mongo:7"
	ReplicaSetName = "rs0"

	connectTimeout = 30 * time.Second
)

var databaseSeq atomic.Int64

// Setup returns a config wired to a migrated database on a new container.
// The container is terminated when the test ends.
func Setup(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, Image, mongodb.WithReplicaSet(ReplicaSetName))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetDirect(true))
	require.NoError(t, err)
	require.NoError(t, client.Ping(connectCtx, nil))
	t.Cleanup(func() {
		if err := client.Disconnect(context.Background()); err != nil {
			t.Logf("failed to disconnect from mongo: %v", err)
		}
	})

	cfg := config.Default(logger.Discard())
	cfg.StoreDriver = config.StoreDriverMongo
	cfg.MongoURI = uri
	cfg.MongoDatabaseName = fmt.Sprintf("cabins_test_%d", databaseSeq.Add(1))
	cfg.Client.Mongo = client

	require.NoError(t, mongoMigration.RunMigration(ctx, client.Database(cfg.MongoDatabaseName), cfg.Log))
	return cfg
}
