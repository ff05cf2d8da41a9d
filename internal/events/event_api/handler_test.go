package event_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	event_db "ms-meetups/internal/events/db"
	"ms-meetups/internal/events/event_api"
	"ms-meetups/internal/events/service"
	"ms-meetups/internal/logger"
	"ms-meetups/internal/models"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Event)(nil)))

	log := logger.NewNopLogger()
	svc := service.NewEventService(&event_db.DB{Bun: bunDB}, log)

	r := chi.NewRouter()
	event_api.NewHandler(svc, log).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		bunDB.Close()
	})
	return server
}

func createEvent(t *testing.T, server *httptest.Server, body string) models.Event {
	t.Helper()

	resp, err := http.Post(server.URL+"/api/events/", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var event models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	return event
}

func TestCreateEventReturnsTokenAndTechnologies(t *testing.T) {
	server := setupServer(t)

	event := createEvent(t, server, `{
		"title": "Meetup A",
		"description": "Talks and pizza",
		"date": "2024-01-01T10:00",
		"location": "Remote",
		"technologies": ["Go"]
	}`)

	assert.NotZero(t, event.ID)
	assert.NotEmpty(t, event.EditToken)
	assert.Equal(t, "Meetup A", event.Title)
	assert.Equal(t, []string{"Go"}, event.Technologies)
}

func TestListDropsTechnologies(t *testing.T) {
	server := setupServer(t)

	created := createEvent(t, server, `{
		"title": "Meetup A",
		"date": "2024-01-01T10:00",
		"location": "Remote",
		"technologies": ["Go"]
	}`)

	resp, err := http.Get(server.URL + "/api/events/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)

	// The create response carried the technologies, the stored row does not.
	assert.Equal(t, created.ID, events[0].ID)
	assert.Empty(t, events[0].Technologies)
}

func TestListOrderingAndLimit(t *testing.T) {
	server := setupServer(t)

	createEvent(t, server, `{"title": "February", "date": "2024-02-01T10:00", "location": "Remote"}`)
	createEvent(t, server, `{"title": "January", "date": "2024-01-01T10:00", "location": "Remote"}`)

	resp, err := http.Get(server.URL + "/api/events/?skip=0&limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var events []models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "January", events[0].Title)
}

func TestListSearchFiltersAcrossFields(t *testing.T) {
	server := setupServer(t)

	createEvent(t, server, `{"title": "Python Meetup", "date": "2024-01-01T10:00", "location": "Lisbon"}`)
	createEvent(t, server, `{"title": "Hack night", "description": "Python workshops", "date": "2024-02-01T10:00", "location": "Porto"}`)
	createEvent(t, server, `{"title": "Infra talks", "date": "2024-03-01T10:00", "location": "Berlin"}`)

	resp, err := http.Get(server.URL + "/api/events/?search=python")
	require.NoError(t, err)
	defer resp.Body.Close()

	var events []models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 2)
	assert.Equal(t, "Python Meetup", events[0].Title)
	assert.Equal(t, "Hack night", events[1].Title)
}

func TestGetEventByToken(t *testing.T) {
	server := setupServer(t)

	created := createEvent(t, server, `{"title": "Meetup A", "date": "2024-01-01T10:00", "location": "Remote"}`)

	resp, err := http.Get(server.URL + "/api/events/by-token/" + created.EditToken)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	assert.Equal(t, created.ID, event.ID)
}

func TestGetEventByUnknownTokenReturns404(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/api/events/by-token/definitely-not-issued")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetEventByID(t *testing.T) {
	server := setupServer(t)

	created := createEvent(t, server, `{"title": "Meetup A", "date": "2024-01-01T10:00", "location": "Remote"}`)

	resp, err := http.Get(fmt.Sprintf("%s/api/events/%d", server.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	missing, err := http.Get(server.URL + "/api/events/99999")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestUpdateEventRoundTrip(t *testing.T) {
	server := setupServer(t)

	created := createEvent(t, server, `{"title": "Old title", "date": "2024-01-01T10:00", "location": "Remote"}`)

	update := `{"title": "New title", "description": "Now in person", "date": "2024-06-01T18:30", "location": "Lisbon", "technologies": ["Go", "Postgres"]}`
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/events/by-token/"+created.EditToken, bytes.NewBufferString(update))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.EditToken, updated.EditToken)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, []string{"Go", "Postgres"}, updated.Technologies)

	// The committed values survive a fresh token lookup; technologies do not.
	check, err := http.Get(server.URL + "/api/events/by-token/" + created.EditToken)
	require.NoError(t, err)
	defer check.Body.Close()

	var fetched models.Event
	require.NoError(t, json.NewDecoder(check.Body).Decode(&fetched))
	assert.Equal(t, "New title", fetched.Title)
	assert.Equal(t, "Lisbon", fetched.Location)
	assert.Empty(t, fetched.Technologies)
}

func TestUpdateWithUnknownTokenReturns404(t *testing.T) {
	server := setupServer(t)

	createEvent(t, server, `{"title": "Meetup A", "date": "2024-01-01T10:00", "location": "Remote"}`)

	body := `{"title": "Hijacked", "date": "2024-01-01T10:00", "location": "Remote"}`
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/events/by-token/wrong-token", bytes.NewBufferString(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Nothing was mutated.
	list, err := http.Get(server.URL + "/api/events/")
	require.NoError(t, err)
	defer list.Body.Close()

	var events []models.Event
	require.NoError(t, json.NewDecoder(list.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "Meetup A", events[0].Title)
}

func TestCreateEventValidationReturns400(t *testing.T) {
	server := setupServer(t)

	cases := []string{
		`{"date": "2024-01-01T10:00", "location": "Remote"}`,
		`{"title": "Meetup A", "location": "Remote"}`,
		`{"title": "Meetup A", "date": "2024-01-01T10:00"}`,
		`{"title": "Meetup A", "date": "not a date", "location": "Remote"}`,
		`not json at all`,
	}

	for _, body := range cases {
		resp, err := http.Post(server.URL+"/api/events/", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}
