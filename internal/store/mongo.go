// Package store holds the users.Store implementations: a MongoDB-backed
// store for production and an in-memory store for tests and local runs.
package store

import (
	"context"
	"fmt"

	"github.com/alfagnish/usersvc/internal/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultCollection is the collection user records live in.
const DefaultCollection = "users_collection"

// Mongo is a users.Store backed by a single MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ users.Store = (*Mongo)(nil)

// OpenMongo connects to uri and verifies the connection with a ping. The
// returned handle is meant to be opened once and shared.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Insert writes doc under a new identifier.
func (s *Mongo) Insert(ctx context.Context, doc users.Document) (users.InsertResult, error) {
	id := users.NewID()
	rec := bson.M{}
	for k, v := range doc {
		rec[k] = v
	}
	rec[users.FieldID] = id.ObjectID()

	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		return users.InsertResult{}, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		id = users.IDFromObjectID(oid)
	}
	return users.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// List returns every document in the collection's natural order.
func (s *Mongo) List(ctx context.Context) ([]users.Document, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]users.Document, 0, len(raw))
	for _, m := range raw {
		doc := users.Document(m)
		if oid, ok := m[users.FieldID].(primitive.ObjectID); ok {
			doc[users.FieldID] = users.IDFromObjectID(oid)
		}
		out = append(out, doc)
	}
	return out, nil
}

// Update applies fields with $set, so unspecified fields survive.
func (s *Mongo) Update(ctx context.Context, id users.ID, fields users.Document) (users.UpdateResult, error) {
	set := bson.M{}
	for k, v := range fields {
		if k == users.FieldID {
			continue
		}
		set[k] = v
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{users.FieldID: id.ObjectID()}, bson.M{"$set": set})
	if err != nil {
		return users.UpdateResult{}, fmt.Errorf("update user %s: %w", id, err)
	}

	out := users.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		up := users.IDFromObjectID(oid)
		out.UpsertedID = &up
	}
	return out, nil
}

// Delete removes at most one document with the given id.
func (s *Mongo) Delete(ctx context.Context, id users.ID) (users.DeleteResult, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{users.FieldID: id.ObjectID()})
	if err != nil {
		return users.DeleteResult{}, fmt.Errorf("delete user %s: %w", id, err)
	}
	return users.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// Ping checks the primary is reachable.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
