package fixture

import (
	"context"
	"testing"

	"github.com/guttosm/mongofixture/config"
	"github.com/stretchr/testify/require"
)

// Setup creates a fixture for t from loaded configuration. Blank prefixes
// are derived from t.Name() with UniquePrefix. Collections are dropped on init and again when
// the test finishes, after which the client is disconnected.
func Setup(t testing.TB, prefix string) *Fixture {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "load fixture configuration")

	if prefix == "" {
		prefix = UniquePrefix(t.Name())
	}
	fc := DefaultConfig(cfg, prefix)
	fc.DropOnDispose = true
	return SetupWithConfig(t, fc)
}

// SetupWithConfig creates a fixture for t from cfg and registers cleanup
// that runs Dispose and then Close.
func SetupWithConfig(t testing.TB, cfg Config) *Fixture {
	t.Helper()

	f, err := NewWithConfig(context.Background(), cfg)
	require.NoError(t, err, "create fixture")

	t.Cleanup(func() {
		// t.Context is already canceled when cleanups run.
		ctx := context.Background()
		require.NoError(t, f.Dispose(ctx), "dispose fixture")
		require.NoError(t, f.Close(ctx), "close fixture client")
	})
	return f
}
