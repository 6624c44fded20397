package users

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID identifies a single user record. It is assigned by the store on
// insert and never changes afterwards.
type ID struct {
	oid primitive.ObjectID
}

// NewID returns a freshly generated identifier.
func NewID() ID {
	return ID{oid: primitive.NewObjectID()}
}

// ParseID validates s as a store identifier (24 hex characters).
func ParseID(s string) (ID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w %q: %v", ErrInvalidID, s, err)
	}
	return ID{oid: oid}, nil
}

// IDFromObjectID wraps an ObjectID read back from the document store.
func IDFromObjectID(oid primitive.ObjectID) ID {
	return ID{oid: oid}
}

// ObjectID returns the underlying document-store identifier.
func (id ID) ObjectID() primitive.ObjectID { return id.oid }

// Hex returns the 24-character hex form used in URLs.
func (id ID) Hex() string { return id.oid.Hex() }

func (id ID) String() string { return id.oid.Hex() }

// IsZero reports whether id was never assigned.
func (id ID) IsZero() bool { return id.oid.IsZero() }

// MarshalJSON encodes the identifier as its hex string.
func (id ID) MarshalJSON() ([]byte, error) {
	return id.oid.MarshalJSON()
}
