package fixture

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// namespaceNotFound is the server error code returned when dropping a
// collection that does not exist.
const namespaceNotFound = 26

// CollectionStore is the set of database operations the drop procedure needs.
type CollectionStore interface {
	// DropCollection drops the named collection. Dropping a collection
	// that does not exist succeeds.
	DropCollection(ctx context.Context, name string) error
	// ListCollectionNames returns the names of every collection in the database.
	ListCollectionNames(ctx context.Context) ([]string, error)
}

// mongoStore implements CollectionStore on a MongoDB database handle.
type mongoStore struct {
	db *mongo.Database
}

func (s mongoStore) DropCollection(ctx context.Context, name string) error {
	err := s.db.Collection(name).Drop(ctx)
	if isNamespaceNotFound(err) {
		return nil
	}
	return err
}

func (s mongoStore) ListCollectionNames(ctx context.Context) ([]string, error) {
	return s.db.ListCollectionNames(ctx, bson.D{})
}

func isNamespaceNotFound(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(namespaceNotFound)
}
