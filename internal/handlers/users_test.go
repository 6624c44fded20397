package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfagnish/usersvc/internal/events"
	"github.com/alfagnish/usersvc/internal/store"
	"github.com/alfagnish/usersvc/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersRouter(s users.Store, hub *events.Hub, strict bool) http.Handler {
	r := chi.NewRouter()
	r.Route("/users", NewUsersHandler(s, hub, strict).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

// faultyStore fails every call with err.
type faultyStore struct{ err error }

func (f faultyStore) Insert(context.Context, users.Document) (users.InsertResult, error) {
	return users.InsertResult{}, f.err
}
func (f faultyStore) List(context.Context) ([]users.Document, error) { return nil, f.err }
func (f faultyStore) Update(context.Context, users.ID, users.Document) (users.UpdateResult, error) {
	return users.UpdateResult{}, f.err
}
func (f faultyStore) Delete(context.Context, users.ID) (users.DeleteResult, error) {
	return users.DeleteResult{}, f.err
}
func (f faultyStore) Ping(context.Context) error  { return f.err }
func (f faultyStore) Close(context.Context) error { return nil }

// countingStore records whether any store call happened.
type countingStore struct {
	users.Store
	calls int
}

func (c *countingStore) Update(ctx context.Context, id users.ID, d users.Document) (users.UpdateResult, error) {
	c.calls++
	return c.Store.Update(ctx, id, d)
}

func (c *countingStore) Delete(ctx context.Context, id users.ID) (users.DeleteResult, error) {
	c.calls++
	return c.Store.Delete(ctx, id)
}

func TestStrict_Scenario(t *testing.T) {
	h := newUsersRouter(store.NewMemory(), nil, true)

	rec := do(t, h, http.MethodPost, "/users", `{"name":"Ann","email":"a@x.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, true, created["acknowledged"])
	id, _ := created["insertedId"].(string)
	require.Len(t, id, 24)

	rec = do(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"_id":"`+id+`","name":"Ann","email":"a@x.com","age":30}]`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/users/"+id, `{"age":31}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User updated successfully", decode[map[string]string](t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/users", "")
	assert.JSONEq(t, `[{"_id":"`+id+`","name":"Ann","email":"a@x.com","age":31}]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/users/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", decode[map[string]string](t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/users", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/users/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorOf(t, rec))
}

func TestStrict_CreateMissingFields(t *testing.T) {
	mem := store.NewMemory()
	h := newUsersRouter(mem, nil, true)

	for _, body := range []string{
		`{"email":"a@x.com","age":30}`,
		`{"name":"Ann","age":30}`,
		`{"name":"Ann","email":"a@x.com"}`,
		`{"name":"Ann","email":"a@x.com","age":""}`,
		`{}`,
	} {
		rec := do(t, h, http.MethodPost, "/users", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Name, email, and age are required", errorOf(t, rec))
	}
	assert.Equal(t, 0, mem.Len())
}

func TestStrict_CreateStoresOnlyProfileFields(t *testing.T) {
	mem := store.NewMemory()
	h := newUsersRouter(mem, nil, true)

	rec := do(t, h, http.MethodPost, "/users", `{"name":"Ann","email":"a@x.com","age":"30","admin":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	docs, err := mem.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], "admin")
	assert.Equal(t, "30", docs[0]["age"])
}

func TestStrict_InvalidJSON(t *testing.T) {
	h := newUsersRouter(store.NewMemory(), nil, true)
	rec := do(t, h, http.MethodPost, "/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", errorOf(t, rec))
}

func TestStrict_InvalidIDSkipsStore(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	h := newUsersRouter(cs, nil, true)

	rec := do(t, h, http.MethodPut, "/users/not-an-id", `{"age":31}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/users/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", errorOf(t, rec))

	assert.Zero(t, cs.calls)
}

func TestStrict_UpdateRequiresAField(t *testing.T) {
	mem := store.NewMemory()
	ins, err := mem.Insert(context.Background(), users.Document{"name": "Ann"})
	require.NoError(t, err)
	h := newUsersRouter(mem, nil, true)

	rec := do(t, h, http.MethodPut, "/users/"+ins.InsertedID.Hex(), `{"nickname":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "At least one field (name, email, age) is required", errorOf(t, rec))
}

func TestStrict_NotFound(t *testing.T) {
	h := newUsersRouter(store.NewMemory(), nil, true)
	missing := users.NewID().Hex()

	rec := do(t, h, http.MethodPut, "/users/"+missing, `{"age":31}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/users/"+missing, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrict_FaultsHideCause(t *testing.T) {
	h := newUsersRouter(faultyStore{err: errors.New("socket closed")}, nil, true)
	id := users.NewID().Hex()

	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodGet, "/users", "", "Failed to fetch users"},
		{http.MethodPost, "/users", `{"name":"Ann","email":"a@x.com","age":30}`, "Failed to create user"},
		{http.MethodPut, "/users/" + id, `{"age":31}`, "Failed to update user"},
		{http.MethodDelete, "/users/" + id, "", "Failed to delete user"},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.path)
		assert.Equal(t, tc.want, errorOf(t, rec))
		assert.NotContains(t, rec.Body.String(), "socket closed")
	}
}

func TestLoose_CreatePassesBodyThrough(t *testing.T) {
	mem := store.NewMemory()
	h := newUsersRouter(mem, nil, false)

	rec := do(t, h, http.MethodPost, "/users", `{"nickname":"ann","tags":["a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["acknowledged"])

	docs, err := mem.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ann", docs[0]["nickname"])
	assert.NotContains(t, docs[0], "name")
}

func TestLoose_UpdateReturnsRawCounts(t *testing.T) {
	mem := store.NewMemory()
	ins, err := mem.Insert(context.Background(), users.Document{"name": "Ann", "email": "a@x.com"})
	require.NoError(t, err)
	h := newUsersRouter(mem, nil, false)

	rec := do(t, h, http.MethodPut, "/users/"+ins.InsertedID.Hex(),
		`{"_id":"`+ins.InsertedID.Hex()+`","email":"ann@x.com","city":"Oslo"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"acknowledged":true,"matchedCount":1,"modifiedCount":1,"upsertedCount":0,"upsertedId":null}`,
		rec.Body.String())

	docs, err := mem.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ann", docs[0]["name"])
	assert.Equal(t, "ann@x.com", docs[0]["email"])
	assert.Equal(t, "Oslo", docs[0]["city"])

	rec = do(t, h, http.MethodPut, "/users/"+users.NewID().Hex(), `{"email":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, rec)["matchedCount"])
}

func TestLoose_MalformedIDIsServerError(t *testing.T) {
	h := newUsersRouter(store.NewMemory(), nil, false)

	rec := do(t, h, http.MethodPut, "/users/abc", `{"age":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid user id")

	rec = do(t, h, http.MethodDelete, "/users/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid user id")
}

func TestLoose_DeleteReturnsRawCount(t *testing.T) {
	h := newUsersRouter(store.NewMemory(), nil, false)

	rec := do(t, h, http.MethodDelete, "/users/"+users.NewID().Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":0}`, rec.Body.String())
}

func TestLoose_FaultsLeakMessage(t *testing.T) {
	h := newUsersRouter(faultyStore{err: errors.New("socket closed")}, nil, false)

	rec := do(t, h, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "socket closed", errorOf(t, rec))

	rec = do(t, h, http.MethodPost, "/users", `{"name":"Ann"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "socket closed", errorOf(t, rec))
}

func TestMutationsPublishEvents(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()
	_, ch := hub.Subscribe()

	h := newUsersRouter(store.NewMemory(), hub, true)

	rec := do(t, h, http.MethodPost, "/users", `{"name":"Ann","email":"a@x.com","age":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["insertedId"].(string)

	do(t, h, http.MethodPut, "/users/"+id, `{"age":31}`)
	do(t, h, http.MethodDelete, "/users/"+id, "")
	// A miss publishes nothing.
	do(t, h, http.MethodDelete, "/users/"+id, "")

	var got []events.Kind
	timeout := time.After(time.Second)
	for len(got) < 3 {
		select {
		case e := <-ch:
			assert.Equal(t, id, e.ID)
			got = append(got, e.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []events.Kind{events.Created, events.Updated, events.Deleted}, got)

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}
