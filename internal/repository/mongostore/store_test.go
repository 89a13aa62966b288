package mongostore

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"unimart/internal/repository"
	"unimart/internal/repository/storetest"
)

// testURIEnv names a scratch deployment; the tests create and drop their own
// databases on it.
const testURIEnv = "UNIMART_TEST_MONGO_URI"

var databaseSeq atomic.Int64

func testClient(t *testing.T) *mongo.Client {
	t.Helper()

	uri := os.Getenv(testURIEnv)
	if uri == "" {
		t.Skipf("%s not set", testURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

// emptyStore returns a store over a fresh database with its indexes in place.
func emptyStore(t *testing.T, client *mongo.Client) *Store {
	t.Helper()

	name := fmt.Sprintf("unimart_test_%d_%d", os.Getpid(), databaseSeq.Add(1))
	ctx := context.Background()
	t.Cleanup(func() { _ = client.Database(name).Drop(context.Background()) })

	s := New(client, name)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestStoreBehaviour(t *testing.T) {
	client := testClient(t)
	storetest.Run(t, func(t *testing.T) repository.Store { return emptyStore(t, client) })
}

func TestEnsureIndexesIsIdempotent(t *testing.T) {
	client := testClient(t)
	s := emptyStore(t, client)
	require.NoError(t, s.EnsureIndexes(context.Background()))
}
