package users

import "context"

// Store persists user records. Implementations must be safe for
// concurrent use; the handle is opened once and shared by all requests.
type Store interface {
	Insert(ctx context.Context, doc Document) (InsertResult, error)
	List(ctx context.Context) ([]Document, error)
	// Update sets the given fields on the matching record, leaving the
	// rest of the record untouched.
	Update(ctx context.Context, id ID, fields Document) (UpdateResult, error)
	Delete(ctx context.Context, id ID) (DeleteResult, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// InsertResult acknowledges a Create.
type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   ID   `json:"insertedId"`
}

// UpdateResult carries the raw match/modify counts of an Update.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    *ID   `json:"upsertedId"`
}

// DeleteResult carries the raw count of a Delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
