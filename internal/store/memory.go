package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/alfagnish/usersvc/internal/users"
)

// Memory is a thread-safe, in-process user store. Records are kept in
// insertion order. All public methods are safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	docs  map[users.ID]users.Document
	order []users.ID
}

var _ users.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[users.ID]users.Document),
	}
}

// Insert stores a copy of doc under a freshly generated identifier.
func (m *Memory) Insert(_ context.Context, doc users.Document) (users.InsertResult, error) {
	id := users.NewID()
	rec := clone(doc)
	rec[users.FieldID] = id

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[id] = rec
	m.order = append(m.order, id)
	return users.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// List returns a copy of every record, oldest first.
func (m *Memory) List(_ context.Context) ([]users.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]users.Document, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.docs[id]))
	}
	return out, nil
}

// Update merges fields into the record with the given id.
func (m *Memory) Update(_ context.Context, id users.ID, fields users.Document) (users.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := users.UpdateResult{Acknowledged: true}
	rec, ok := m.docs[id]
	if !ok {
		return res, nil
	}
	res.MatchedCount = 1

	changed := false
	for k, v := range fields {
		if k == users.FieldID {
			continue
		}
		if old, exists := rec[k]; !exists || !reflect.DeepEqual(old, v) {
			rec[k] = v
			changed = true
		}
	}
	if changed {
		res.ModifiedCount = 1
	}
	return res, nil
}

// Delete removes the record with the given id, if any.
func (m *Memory) Delete(_ context.Context, id users.ID) (users.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := users.DeleteResult{Acknowledged: true}
	if _, ok := m.docs[id]; !ok {
		return res, nil
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	res.DeletedCount = 1
	return res, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close(context.Context) error { return nil }

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// clone returns a shallow copy to avoid races on the stored map.
func clone(doc users.Document) users.Document {
	cp := make(users.Document, len(doc)+1)
	for k, v := range doc {
		cp[k] = v
	}
	return cp
}
