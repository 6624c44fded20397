package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/alfagnish/usersvc/internal/users"
	"github.com/go-chi/chi/v5"
)

// SystemHandler provides the health check endpoint.
type SystemHandler struct {
	store   users.Store
	strict  bool
	timeout time.Duration
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store users.Store, strict bool) *SystemHandler {
	return &SystemHandler{
		store:   store,
		strict:  strict,
		timeout: 5 * time.Second,
	}
}

// Routes registers all system routes on the given chi router.
func (h *SystemHandler) Routes(r chi.Router) {
	r.Get("/", h.Health)
}

// serviceStatus reports the health of the document store.
type serviceStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health pings the store and reports overall status. It always answers
// 200 so that a degraded store is visible rather than fatal.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.pingStore(r.Context())

	overall := "ok"
	if st.Error != "" {
		overall = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": overall,
		"store":  st,
		"strict": h.strict,
	})
}

func (h *SystemHandler) pingStore(ctx context.Context) serviceStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return serviceStatus{
			Status:  "error",
			Latency: latency.String(),
			Error:   err.Error(),
		}
	}
	return serviceStatus{
		Status:  "ok",
		Latency: latency.String(),
	}
}
