package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-meetups/internal/events/service"
	"ms-meetups/internal/logger"
	"ms-meetups/internal/models"
)

type Handler struct {
	EventService *service.EventService
	Logger       *logger.Logger
}

func NewHandler(eventService *service.EventService, log *logger.Logger) *Handler {
	return &Handler{
		EventService: eventService,
		Logger:       log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/by-token/{editToken}", h.GetEventByToken)
		r.Put("/by-token/{editToken}", h.UpdateEvent)
		r.Get("/{eventID}", h.GetEvent)
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, "Failed to create event", err)
		return
	}

	h.Logger.LogBusiness("API_EVENT_CREATED", map[string]interface{}{
		"event_id": event.ID,
		"title":    event.Title,
		"method":   "API",
	})
	h.writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", service.DefaultSkip)
	limit := queryInt(r, "limit", service.DefaultLimit)
	search := r.URL.Query().Get("search")

	events, err := h.EventService.GetEvents(r.Context(), skip, limit, search)
	if err != nil {
		h.writeError(w, "Failed to list events", err)
		return
	}

	h.Logger.LogBusiness("API_EVENTS_LISTED", map[string]interface{}{
		"count":      len(events),
		"has_search": search != "",
		"method":     "API",
	})
	h.writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEventByToken(w http.ResponseWriter, r *http.Request) {
	editToken := chi.URLParam(r, "editToken")

	event, err := h.EventService.GetEventByToken(r.Context(), editToken)
	if err != nil {
		h.writeError(w, "Failed to fetch event", err)
		return
	}

	h.Logger.LogBusiness("API_EVENT_RETRIEVED_BY_TOKEN", map[string]interface{}{
		"event_id": event.ID,
		"title":    event.Title,
		"method":   "API",
	})
	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	event, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, "Failed to fetch event", err)
		return
	}
	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	editToken := chi.URLParam(r, "editToken")

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), editToken, req)
	if err != nil {
		h.writeError(w, "Failed to update event", err)
		return
	}

	h.Logger.LogBusiness("API_EVENT_UPDATED", map[string]interface{}{
		"event_id": event.ID,
		"title":    event.Title,
		"method":   "API",
	})
	h.writeJSON(w, http.StatusOK, event)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

// writeError maps the three service error kinds onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		http.Error(w, "Event not found", http.StatusNotFound)
	case errors.Is(err, service.ErrValidation):
		http.Error(w, message+": "+err.Error(), http.StatusBadRequest)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", message, err))
		http.Error(w, message, http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
