// Package fixture provisions and tears down prefixed MongoDB collections for
// test runs.
//
// Every collection a Fixture hands out is named "<prefix>_<TypeName>", so
// test suites running in parallel against the same database stay isolated
// as long as each uses its own prefix. Prefix uniqueness is the caller's
// responsibility; the test class or test name is a good choice.
//
//	f, err := fixture.New(ctx, "UserStoreTests", "")
//	if err != nil {
//		return err
//	}
//	defer f.Dispose(ctx)
//	users, err := fixture.Collection[User](ctx, f)
//
// A Fixture is not safe for concurrent use.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/mongofixture/config"
	"github.com/guttosm/mongofixture/internal/logger"
	"github.com/guttosm/mongofixture/internal/metrics"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// DefaultDatabaseName is the database targeted when none is configured.
const DefaultDatabaseName = "Testing"

var (
	// ErrMissingConnectionString is returned by Client when no connection string was configured.
	ErrMissingConnectionString = errors.New("fixture: connection string is not configured")
	// ErrEmptyPrefix is returned by DropCollections instead of matching every collection.
	ErrEmptyPrefix = errors.New("fixture: collection prefix is empty")
	// ErrUnnamedType is returned when a collection is requested for a type without a name.
	ErrUnnamedType = errors.New("fixture: entity type has no name")
	// ErrClosed is returned by Client and Database after Close.
	ErrClosed = errors.New("fixture: closed")
)

// Config holds fixture configuration.
type Config struct {
	// ConnectionString is the MongoDB URI.
	ConnectionString string
	// CollectionPrefix is prepended to every collection name as given. Blank
	// or whitespace-only values are replaced with a time-derived fallback.
	CollectionPrefix string
	// DatabaseName defaults to "Testing" when blank.
	DatabaseName string
	// DropOnInit drops prefixed collections before construction returns.
	DropOnInit bool
	// DropOnDispose drops tracked and prefixed collections in Dispose.
	DropOnDispose bool
	// Registry, when set, is installed on the client for custom BSON mappings.
	Registry *bsoncodec.Registry
	// ConnectTimeout, ServerSelectionTimeout and MaxPoolSize override the
	// driver defaults when non-zero.
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

// Init configures process-wide settings from cfg. Call it once, typically
// from TestMain, before creating fixtures.
func Init(cfg config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

// DefaultConfig returns a fixture configuration built from loaded settings:
// drop on init, keep on dispose.
func DefaultConfig(cfg config.Config, prefix string) Config {
	return Config{
		ConnectionString: cfg.Data.ConnectionString,
		CollectionPrefix: prefix,
		DatabaseName:     cfg.Data.DatabaseName,
		DropOnInit:       true,
		DropOnDispose:    false,
	}
}

// Fixture manages the lifecycle of one test run's collections.
type Fixture struct {
	connectionString string
	prefix           string
	databaseName     string
	dropOnInit       bool
	dropOnDispose    bool
	clientOptions    *options.ClientOptions

	client   lazy[*mongo.Client]
	database lazy[*mongo.Database]
	// store is nil outside tests; the drop procedure then uses the database handle.
	store   CollectionStore
	tracked []string
	closed  bool

	logger zerolog.Logger
}

// New loads configuration and creates a fixture that drops prefixed
// collections on init and keeps them on dispose. A non-blank databaseName
// overrides the configured one.
func New(ctx context.Context, prefix, databaseName string) (*Fixture, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fc := DefaultConfig(cfg, prefix)
	if strings.TrimSpace(databaseName) != "" {
		fc.DatabaseName = databaseName
	}
	return NewWithConfig(ctx, fc)
}

// NewWithConfig creates a fixture from cfg. When cfg.DropOnInit is set the
// drop procedure runs before it returns.
func NewWithConfig(ctx context.Context, cfg Config) (*Fixture, error) {
	f := newFixture(cfg)
	if err := f.initialize(ctx); err != nil {
		_ = f.Close(ctx)
		return nil, err
	}
	return f, nil
}

func newFixture(cfg Config) *Fixture {
	prefix := cfg.CollectionPrefix
	fallback := strings.TrimSpace(prefix) == ""
	if fallback {
		prefix = fallbackPrefix(time.Now())
	}

	databaseName := strings.TrimSpace(cfg.DatabaseName)
	if databaseName == "" {
		databaseName = DefaultDatabaseName
	}

	f := &Fixture{
		connectionString: cfg.ConnectionString,
		prefix:           prefix,
		databaseName:     databaseName,
		dropOnInit:       cfg.DropOnInit,
		dropOnDispose:    cfg.DropOnDispose,
		clientOptions:    buildClientOptions(cfg),
		logger:           logger.ForFixture(prefix, databaseName),
	}
	if fallback {
		f.logger.Warn().Msg("No collection prefix supplied - using time-derived fallback")
	}
	return f
}

func buildClientOptions(cfg Config) *options.ClientOptions {
	opts := options.Client().ApplyURI(cfg.ConnectionString)
	if cfg.Registry != nil {
		opts.SetRegistry(cfg.Registry)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

func (f *Fixture) initialize(ctx context.Context) error {
	if !f.dropOnInit {
		return nil
	}
	return f.DropCollections(ctx)
}

// Prefix returns the collection prefix in use.
func (f *Fixture) Prefix() string { return f.prefix }

// DatabaseName returns the target database name.
func (f *Fixture) DatabaseName() string { return f.databaseName }

// DropOnInit reports whether the fixture dropped collections at construction.
func (f *Fixture) DropOnInit() bool { return f.dropOnInit }

// DropOnDispose reports whether Dispose drops collections.
func (f *Fixture) DropOnDispose() bool { return f.dropOnDispose }

// TrackedCollections returns a copy of every collection name handed out so
// far, in order and with duplicates.
func (f *Fixture) TrackedCollections() []string {
	return append([]string(nil), f.tracked...)
}

// Client returns the fixture's MongoDB client, connecting on first use.
// Every call returns the same client until Close.
func (f *Fixture) Client(ctx context.Context) (*mongo.Client, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.client.get(func() (*mongo.Client, error) {
		if strings.TrimSpace(f.connectionString) == "" {
			return nil, ErrMissingConnectionString
		}
		client, err := mongo.Connect(ctx, f.clientOptions)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		f.logger.Debug().Msg("Connected to MongoDB")
		return client, nil
	})
}

// Database returns the fixture's database handle, creating it on first use.
// Every call returns the same handle until Close.
func (f *Fixture) Database(ctx context.Context) (*mongo.Database, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.database.get(func() (*mongo.Database, error) {
		client, err := f.Client(ctx)
		if err != nil {
			return nil, err
		}
		return client.Database(f.databaseName), nil
	})
}

// Collection returns the collection for entity type T, named
// "<prefix>_<TypeName>" and configured with majority write concern.
// Each call tracks the name again, even for a type seen before.
func Collection[T any](ctx context.Context, f *Fixture) (*mongo.Collection, error) {
	return f.CollectionNamed(ctx, typeName[T]())
}

// CollectionNamed is the untyped form of Collection.
func (f *Fixture) CollectionNamed(ctx context.Context, entity string) (*mongo.Collection, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(entity) == "" {
		return nil, ErrUnnamedType
	}

	name := f.CollectionName(entity)
	f.tracked = append(f.tracked, name)
	metrics.RecordTracked()
	f.logger.Debug().Str("collection", name).Msg("Tracking collection")

	db, err := f.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name, options.Collection().SetWriteConcern(writeconcern.Majority())), nil
}

// Dispose drops tracked and prefixed collections when the fixture was built
// with DropOnDispose. It leaves the client connected; see Close.
func (f *Fixture) Dispose(ctx context.Context) error {
	if !f.dropOnDispose {
		return nil
	}
	return f.DropCollections(ctx)
}

// Close disconnects the client if one was created. Close is terminal:
// afterwards Client, Database, Collection and DropCollections return
// ErrClosed. Closing twice is a no-op.
func (f *Fixture) Close(ctx context.Context) error {
	f.closed = true
	client, ok := f.client.peek()
	if !ok {
		return nil
	}
	f.client.reset()
	f.database.reset()
	return client.Disconnect(ctx)
}
