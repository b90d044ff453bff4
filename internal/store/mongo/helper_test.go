package mongo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qscale/logstore/internal/catalog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testMongoURI = "mongodb://localhost:27017/?connectTimeoutMS=2000&serverSelectionTimeoutMS=2000"

var (
	globalTestClient     *mongo.Client
	globalTestClientErr  error
	globalTestClientOnce sync.Once
)

func getGlobalTestClient(t *testing.T) *mongo.Client {
	globalTestClientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI))
		if err != nil {
			globalTestClientErr = err
			return
		}
		if err := client.Ping(ctx, nil); err != nil {
			globalTestClientErr = err
			return
		}
		globalTestClient = client
	})
	if globalTestClientErr != nil {
		t.Skip("MongoDB not available, skipping integration tests")
	}
	return globalTestClient
}

type testEnv struct {
	Provider *Provider
	Catalog  *catalog.Catalog
	DB       *mongo.Database
}

func setupTestEnv(t *testing.T) *testEnv {
	client := getGlobalTestClient(t)

	safeName := strings.ReplaceAll(t.Name(), "/", "_")
	if len(safeName) > 24 {
		safeName = safeName[len(safeName)-24:]
	}
	dbName := fmt.Sprintf("test_logstore_%s_%d", safeName, time.Now().UnixNano()%100000)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
	})

	cat, err := catalog.Default()
	require.NoError(t, err)

	db := client.Database(dbName)
	return &testEnv{
		// Shared client: the env's provider is never Closed by tests.
		Provider: &Provider{client: client, db: db},
		Catalog:  cat,
		DB:       db,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
