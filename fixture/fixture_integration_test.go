//go:build integration

package fixture

import (
	"context"
	"testing"

	"github.com/guttosm/mongofixture/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type User struct {
	Name string `bson:"name"`
}

// seedClient connects independently of any fixture so tests can inspect
// the database the way another test run would see it.
func seedClient(t *testing.T) *mongo.Client {
	t.Helper()
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testutil.SharedURI()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return client
}

func collectionNames(t *testing.T, db *mongo.Database) []string {
	t.Helper()
	names, err := db.ListCollectionNames(context.Background(), bson.D{})
	require.NoError(t, err)
	return names
}

func TestFixture_Integration_Scenario(t *testing.T) {
	ctx := context.Background()
	dbName := SanitizePrefix(t.Name())
	db := seedClient(t).Database(dbName)

	require.NoError(t, db.CreateCollection(ctx, "Suite1_User"))
	require.NoError(t, db.CreateCollection(ctx, "Suite2_User"))

	f, err := NewWithConfig(ctx, Config{
		ConnectionString: testutil.SharedURI(),
		CollectionPrefix: "Suite1",
		DatabaseName:     dbName,
		DropOnInit:       true,
		DropOnDispose:    true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close(ctx)) }()

	t.Run("init drops prefixed collections only", func(t *testing.T) {
		names := collectionNames(t, db)
		assert.NotContains(t, names, "Suite1_User")
		assert.Contains(t, names, "Suite2_User")
	})

	t.Run("collection is recreated on first write", func(t *testing.T) {
		users, err := Collection[User](ctx, f)
		require.NoError(t, err)

		_, err = users.InsertOne(ctx, User{Name: "alice"})
		require.NoError(t, err)
		assert.Contains(t, collectionNames(t, db), "Suite1_User")
	})

	t.Run("dispose drops it again", func(t *testing.T) {
		require.NoError(t, f.Dispose(ctx))

		names := collectionNames(t, db)
		assert.NotContains(t, names, "Suite1_User")
		assert.Contains(t, names, "Suite2_User")
	})
}

func TestFixture_Integration_DropMissingCollection(t *testing.T) {
	ctx := context.Background()

	f, err := NewWithConfig(ctx, Config{
		ConnectionString: testutil.SharedURI(),
		CollectionPrefix: "Ghost",
		DatabaseName:     SanitizePrefix(t.Name()),
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close(ctx)) }()

	_, err = f.CollectionNamed(ctx, "Never")
	require.NoError(t, err)

	assert.NoError(t, f.DropCollections(ctx))
	assert.NoError(t, f.DropCollections(ctx))
}

func TestFixture_Integration_HandlesAreCached(t *testing.T) {
	ctx := context.Background()

	f, err := NewWithConfig(ctx, Config{
		ConnectionString: testutil.SharedURI(),
		CollectionPrefix: "Cached",
		DropOnInit:       true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close(ctx)) }()

	c1, err := f.Client(ctx)
	require.NoError(t, err)
	c2, err := f.Client(ctx)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	d1, err := f.Database(ctx)
	require.NoError(t, err)
	d2, err := f.Database(ctx)
	require.NoError(t, err)
	assert.Same(t, d1, d2)
	assert.Equal(t, DefaultDatabaseName, d1.Name())

	require.NoError(t, c1.Ping(ctx, nil))
}

func TestFixture_Integration_New(t *testing.T) {
	ctx := context.Background()
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("FIXTURE_CONFIG", t.TempDir()+"/missing.json")

	f, err := New(ctx, "FromEnv", "")
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close(ctx)) }()

	assert.Equal(t, "Testing", f.DatabaseName())
	assert.True(t, f.DropOnInit())
	assert.False(t, f.DropOnDispose())

	users, err := Collection[User](ctx, f)
	require.NoError(t, err)
	_, err = users.InsertOne(ctx, User{Name: "bob"})
	require.NoError(t, err)

	require.NoError(t, f.Dispose(ctx))
	db := seedClient(t).Database("Testing")
	assert.Contains(t, collectionNames(t, db), "FromEnv_User")

	require.NoError(t, f.DropCollections(ctx))
	assert.NotContains(t, collectionNames(t, db), "FromEnv_User")
}

func TestSetup_Integration(t *testing.T) {
	t.Setenv("FIXTURE_CONFIG", t.TempDir()+"/missing.json")
	t.Setenv("MONGODB_DATABASE", SanitizePrefix(t.Name()))

	var prefix string
	t.Run("inner", func(t *testing.T) {
		f := Setup(t, "")
		prefix = f.Prefix()
		assert.Regexp(t, `^TestSetup_Integration_inner_[0-9a-f]{8}$`, prefix)

		users, err := Collection[User](context.Background(), f)
		require.NoError(t, err)
		_, err = users.InsertOne(context.Background(), User{Name: "carol"})
		require.NoError(t, err)
	})

	db := seedClient(t).Database(SanitizePrefix(t.Name()))
	assert.NotContains(t, collectionNames(t, db), prefix+"_User")
}
