package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// EventsHandler surfaces the read-only events collection.
type EventsHandler struct {
	service businessapi.Service
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(service businessapi.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

// Routes returns the router for events endpoints
func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListEvents)
	return r
}

// ListEvents returns every event record as stored, no normalization applied.
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		slog.Error("Failed to fetch events", "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}
	if events == nil {
		events = []*businessapi.Event{}
	}
	render.JSON(w, r, events)
}
