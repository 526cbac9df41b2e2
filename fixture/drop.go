package fixture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/mongofixture/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDrops bounds the prefix-scan fan-out so a database full of
// leftover collections does not exhaust the connection pool.
const maxConcurrentDrops = 8

// DropCollections drops every tracked collection, one at a time and in the
// order they were handed out, then drops every collection in the database
// whose name starts with the prefix. The prefix drops run concurrently, at
// most eight at a time, and all of them complete before DropCollections returns. Missing collections
// are not an error.
func (f *Fixture) DropCollections(ctx context.Context) error {
	if f.prefix == "" {
		return ErrEmptyPrefix
	}

	start := time.Now()
	defer func() {
		metrics.ObserveDrop(time.Since(start))
	}()

	store, err := f.collectionStore(ctx)
	if err != nil {
		return err
	}

	for _, name := range f.tracked {
		if err := store.DropCollection(ctx, name); err != nil {
			metrics.RecordDropError(metrics.PhaseTracked)
			return fmt.Errorf("drop tracked collection %s: %w", name, err)
		}
		metrics.RecordDrop(metrics.PhaseTracked)
	}

	names, err := store.ListCollectionNames(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentDrops)
	matched := 0
	for _, name := range names {
		if !strings.HasPrefix(name, f.prefix) {
			continue
		}
		matched++
		g.Go(func() error {
			if err := store.DropCollection(ctx, name); err != nil {
				metrics.RecordDropError(metrics.PhasePrefix)
				return fmt.Errorf("drop prefixed collection %s: %w", name, err)
			}
			metrics.RecordDrop(metrics.PhasePrefix)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.logger.Info().
		Int("tracked", len(f.tracked)).
		Int("prefixed", matched).
		Dur("duration", time.Since(start)).
		Msg("Dropped fixture collections")
	return nil
}

func (f *Fixture) collectionStore(ctx context.Context) (CollectionStore, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if f.store != nil {
		return f.store, nil
	}
	db, err := f.Database(ctx)
	if err != nil {
		return nil, err
	}
	return mongoStore{db: db}, nil
}
