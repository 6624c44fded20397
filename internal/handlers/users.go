package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/alfagnish/usersvc/internal/events"
	"github.com/alfagnish/usersvc/internal/users"
	"github.com/go-chi/chi/v5"
)

// UsersHandler provides the CRUD endpoints for user records.
//
// In strict mode bodies are validated, lookups that miss return 404 and
// store faults are reported with a fixed message while the cause is
// logged. In loose mode bodies pass through untouched, the store's raw
// results are returned and fault messages reach the caller.
type UsersHandler struct {
	store  users.Store
	hub    *events.Hub
	strict bool
}

// NewUsersHandler creates a new UsersHandler. hub may be nil.
func NewUsersHandler(store users.Store, hub *events.Hub, strict bool) *UsersHandler {
	return &UsersHandler{store: store, hub: hub, strict: strict}
}

// Routes registers user routes on the given chi router.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Post("/", h.CreateUser)
	r.Put("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeleteUser)
}

// operation labels used for logging and strict-mode fault messages.
type operation struct {
	route string
	fault string
}

var (
	opCreate = operation{"POST /users", "Failed to create user"}
	opList   = operation{"GET /users", "Failed to fetch users"}
	opUpdate = operation{"PUT /users/:id", "Failed to update user"}
	opDelete = operation{"DELETE /users/:id", "Failed to delete user"}
)

// ListUsers returns every stored record.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, opList, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateUser inserts a new record.
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body users.Document
	if err := decodeBody(w, r, &body); err != nil {
		h.fail(w, opCreate, err)
		return
	}

	doc := users.Passthrough(body)
	if h.strict {
		var err error
		if doc, err = users.RequireAll(body); err != nil {
			h.fail(w, opCreate, err)
			return
		}
	}

	res, err := h.store.Insert(r.Context(), doc)
	if err != nil {
		h.fail(w, opCreate, err)
		return
	}
	h.publish(events.Created, res.InsertedID)

	status := http.StatusOK
	if h.strict {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// UpdateUser merges the body's fields into an existing record.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := users.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, opUpdate, err)
		return
	}

	var body users.Document
	if err := decodeBody(w, r, &body); err != nil {
		h.fail(w, opUpdate, err)
		return
	}

	fields := users.Passthrough(body)
	if h.strict {
		if fields, err = users.PickPresent(body); err != nil {
			h.fail(w, opUpdate, err)
			return
		}
	}

	res, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		h.fail(w, opUpdate, err)
		return
	}
	if res.MatchedCount > 0 {
		h.publish(events.Updated, id)
	}

	if !h.strict {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if res.MatchedCount == 0 {
		h.fail(w, opUpdate, users.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

// DeleteUser removes a record permanently.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := users.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, opDelete, err)
		return
	}

	res, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, opDelete, err)
		return
	}
	if res.DeletedCount > 0 {
		h.publish(events.Deleted, id)
	}

	if !h.strict {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if res.DeletedCount == 0 {
		h.fail(w, opDelete, users.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// fail maps err onto a status code and error body.
func (h *UsersHandler) fail(w http.ResponseWriter, op operation, err error) {
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, users.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Name, email, and age are required")
		return
	case errors.Is(err, users.ErrNoFields):
		writeError(w, http.StatusBadRequest, "At least one field (name, email, age) is required")
		return
	case errors.Is(err, users.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, users.ErrInvalidID) && h.strict:
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	log.Printf("%s error: %v", op.route, err)
	if h.strict {
		writeError(w, http.StatusInternalServerError, op.fault)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *UsersHandler) publish(kind events.Kind, id users.ID) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(events.Event{Type: kind, ID: id.Hex()})
}
