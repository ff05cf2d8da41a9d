package page

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-meetups/internal/events/service"
	"ms-meetups/internal/logger"
	"ms-meetups/internal/models"
	"ms-meetups/internal/utils"
	"ms-meetups/web"
)

var pageNames = []string{"list", "create", "edit", "detail", "not_found", "error"}

// Handler serves the server-rendered form surface. Every page is a full
// standalone template embedded at build time.
type Handler struct {
	EventService *service.EventService
	Logger       *logger.Logger
	templates    map[string]*template.Template
	serverName   string
}

func NewHandler(eventService *service.EventService, log *logger.Logger) (*Handler, error) {
	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(web.TemplatesFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	serverName, err := os.Hostname()
	if err != nil {
		serverName = "unknown"
	}

	return &Handler{
		EventService: eventService,
		Logger:       log,
		templates:    templates,
		serverName:   serverName,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListEventsPage)
	r.Route("/events", func(r chi.Router) {
		r.Get("/new", h.NewEventPage)
		r.Post("/", h.CreateEventForm)
		r.Get("/edit/{editToken}", h.EditEventPage)
		r.Post("/edit/{editToken}", h.UpdateEventForm)
		r.Get("/{eventID}", h.EventDetailPage)
	})
}

func (h *Handler) ListEventsPage(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	events, err := h.EventService.GetEvents(r.Context(), service.DefaultSkip, service.DefaultLimit, search)
	if err != nil {
		h.renderError(w, "Failed to load events")
		return
	}

	h.Logger.LogBusiness("WEB_EVENTS_PAGE_VIEWED", map[string]interface{}{
		"count":      len(events),
		"has_search": search != "",
		"method":     "WEB",
	})

	h.render(w, "list", map[string]interface{}{
		"Events":        events,
		"CurrentSearch": search,
		"CreatedID":     r.URL.Query().Get("created"),
		"CreatedToken":  r.URL.Query().Get("token"),
		"ServerName":    h.serverName,
	})
}

func (h *Handler) NewEventPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "create", map[string]interface{}{
		"ServerName": h.serverName,
	})
}

func (h *Handler) EditEventPage(w http.ResponseWriter, r *http.Request) {
	editToken := chi.URLParam(r, "editToken")

	event, err := h.EventService.GetEventByToken(r.Context(), editToken)
	if err != nil {
		h.renderNotFound(w)
		return
	}

	h.render(w, "edit", map[string]interface{}{
		"Event":      event,
		"EditToken":  editToken,
		"ServerName": h.serverName,
	})
}

func (h *Handler) EventDetailPage(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		h.renderNotFound(w)
		return
	}

	event, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.renderNotFound(w)
		return
	}

	h.render(w, "detail", map[string]interface{}{
		"Event":      event,
		"ServerName": h.serverName,
	})
}

func (h *Handler) CreateEventForm(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("WEB", "Processing event creation form")

	req, err := formRequest(r)
	if err != nil {
		http.Redirect(w, r, "/events/new", http.StatusSeeOther)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		h.Logger.Warn("WEB", fmt.Sprintf("Event creation form rejected: %v", err))
		http.Redirect(w, r, "/events/new", http.StatusSeeOther)
		return
	}

	h.Logger.LogBusiness("WEB_EVENT_CREATED", map[string]interface{}{
		"event_id": event.ID,
		"title":    event.Title,
		"method":   "WEB_FORM",
	})

	http.Redirect(w, r, fmt.Sprintf("/?created=%d&token=%s", event.ID, event.EditToken), http.StatusSeeOther)
}

func (h *Handler) UpdateEventForm(w http.ResponseWriter, r *http.Request) {
	editToken := chi.URLParam(r, "editToken")
	h.Logger.Info("WEB", "Processing event edit form")

	req, err := formRequest(r)
	if err != nil {
		http.Redirect(w, r, "/events/edit/"+editToken, http.StatusSeeOther)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), editToken, req)
	if err != nil {
		h.Logger.Warn("WEB", fmt.Sprintf("Event edit form rejected: %v", err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.Logger.LogBusiness("WEB_EVENT_UPDATED", map[string]interface{}{
		"event_id": event.ID,
		"title":    event.Title,
		"method":   "WEB_FORM",
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formRequest(r *http.Request) (models.EventRequest, error) {
	if err := r.ParseForm(); err != nil {
		return models.EventRequest{}, err
	}

	description := r.FormValue("description")
	return models.EventRequest{
		Title:        r.FormValue("title"),
		Description:  &description,
		Date:         r.FormValue("date"),
		Location:     r.FormValue("location"),
		Technologies: utils.SplitTechnologies(r.FormValue("technologies")),
	}, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates[name].Execute(w, data); err != nil {
		h.Logger.Error("WEB", fmt.Sprintf("Failed to render %s page: %v", name, err))
	}
}

func (h *Handler) renderNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.templates["not_found"].Execute(w, map[string]interface{}{"ServerName": h.serverName})
}

func (h *Handler) renderError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	h.templates["error"].Execute(w, map[string]interface{}{
		"ErrorMessage": message,
		"ServerName":   h.serverName,
	})
}
