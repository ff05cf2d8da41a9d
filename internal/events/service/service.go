package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"ms-meetups/internal/logger"
	"ms-meetups/internal/models"
	"ms-meetups/internal/utils"
)

var (
	// ErrEventNotFound covers both "no such id" and "unknown edit token".
	// Presenting a wrong token is indistinguishable from a missing event.
	ErrEventNotFound = errors.New("event not found")

	// ErrValidation wraps malformed or missing request fields.
	ErrValidation = errors.New("invalid event data")
)

const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) (*models.Event, error)
	ListEvents(ctx context.Context, skip, limit int, search string) ([]models.Event, error)
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	GetEventByToken(ctx context.Context, editToken string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) (*models.Event, error)
}

type EventService struct {
	DB       EventDBLayer
	Logger   *logger.Logger
	validate *validator.Validate
}

func NewEventService(db EventDBLayer, log *logger.Logger) *EventService {
	return &EventService{
		DB:       db,
		Logger:   log,
		validate: validator.New(),
	}
}

// CreateEvent validates the request, persists the event and attaches the
// caller-supplied technologies to the returned record. Technologies are not
// persisted: a later read will come back without them.
func (s *EventService) CreateEvent(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	s.Logger.Info("EVENT", fmt.Sprintf("Creating new event: %s", req.Title))

	event, err := s.buildEvent(req)
	if err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Validation failed on create: %v", err))
		return nil, err
	}

	created, err := s.DB.CreateEvent(ctx, *event)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to create event: %v", err))
		return nil, err
	}
	created.Technologies = normalizeTechnologies(req.Technologies)

	s.Logger.LogDatabase("CREATE", "events", fmt.Sprintf("id=%d", created.ID))
	s.Logger.LogBusiness("EVENT_CREATED", map[string]interface{}{
		"event_id":           created.ID,
		"title":              created.Title,
		"location":           created.Location,
		"technologies_count": len(created.Technologies),
	})

	return created, nil
}

// GetEvents lists events ordered by date ascending with offset pagination.
// Pages may shift if rows are inserted between calls.
func (s *EventService) GetEvents(ctx context.Context, skip, limit int, search string) ([]models.Event, error) {
	if skip < 0 {
		skip = DefaultSkip
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.Logger.Debug("EVENT", fmt.Sprintf("Listing events: skip=%d limit=%d search=%q", skip, limit, search))

	events, err := s.DB.ListEvents(ctx, skip, limit, search)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to list events: %v", err))
		return nil, err
	}
	for i := range events {
		events[i].Technologies = []string{}
	}

	s.Logger.LogDatabase("READ", "events", fmt.Sprintf("count=%d", len(events)))
	return events, nil
}

func (s *EventService) GetEventByToken(ctx context.Context, editToken string) (*models.Event, error) {
	s.Logger.Debug("EVENT", fmt.Sprintf("Looking up event by token: %s...", tokenPrefix(editToken)))

	event, err := s.DB.GetEventByToken(ctx, editToken)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to look up event by token: %v", err))
		return nil, err
	}
	if event == nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("No event for token: %s...", tokenPrefix(editToken)))
		return nil, ErrEventNotFound
	}
	event.Technologies = []string{}

	s.Logger.LogDatabase("READ", "events", fmt.Sprintf("id=%d by_token", event.ID))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	s.Logger.Debug("EVENT", fmt.Sprintf("Looking up event by id: %d", id))

	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to look up event %d: %v", id, err))
		return nil, err
	}
	if event == nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("No event with id: %d", id))
		return nil, ErrEventNotFound
	}
	event.Technologies = []string{}

	s.Logger.LogDatabase("READ", "events", fmt.Sprintf("id=%d", id))
	return event, nil
}

// UpdateEvent resolves the record through its edit token (the possession
// check) and rewrites the four mutable fields. Id and edit token survive.
func (s *EventService) UpdateEvent(ctx context.Context, editToken string, req models.EventRequest) (*models.Event, error) {
	s.Logger.Info("EVENT", fmt.Sprintf("Updating event with token: %s...", tokenPrefix(editToken)))

	update, err := s.buildEvent(req)
	if err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Validation failed on update: %v", err))
		return nil, err
	}

	event, err := s.GetEventByToken(ctx, editToken)
	if err != nil {
		return nil, err
	}
	oldTitle := event.Title

	event.Title = update.Title
	event.Description = update.Description
	event.Date = update.Date
	event.Location = update.Location

	updated, err := s.DB.UpdateEvent(ctx, *event)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to update event %d: %v", event.ID, err))
		return nil, err
	}
	updated.Technologies = normalizeTechnologies(req.Technologies)

	s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("id=%d", updated.ID))
	s.Logger.LogBusiness("EVENT_UPDATED", map[string]interface{}{
		"event_id":           updated.ID,
		"old_title":          oldTitle,
		"new_title":          updated.Title,
		"location":           updated.Location,
		"technologies_count": len(updated.Technologies),
	})

	return updated, nil
}

// buildEvent checks required fields and parses the date string. Both failure
// modes surface as ErrValidation.
func (s *EventService) buildEvent(req models.EventRequest) (*models.Event, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	date, err := utils.ParseEventDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
	}, nil
}

func normalizeTechnologies(techs []string) []string {
	if techs == nil {
		return []string{}
	}
	return techs
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
