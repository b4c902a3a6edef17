package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
	"github.com/LegalDragon/Pickleball-Community-sub007/db/dbtest"
	"github.com/LegalDragon/Pickleball-Community-sub007/handlers"
	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/LegalDragon/Pickleball-Community-sub007/middleware"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	"github.com/LegalDragon/Pickleball-Community-sub007/routes"
	"github.com/LegalDragon/Pickleball-Community-sub007/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-secret"

type apiEnv struct {
	server     *httptest.Server
	divisionID string
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	database := dbtest.New(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repositories.NewUserRepository(database)
	for _, id := range []string{"org", "u1", "u2"} {
		require.NoError(t, users.Upsert(ctx, nil, &models.Person{ID: id, FirstName: strings.ToUpper(id), Email: id + "@example.com"}))
	}
	event := &models.Event{ID: uuid.NewString(), Name: "Open", OrganizerID: "org", CreatedAt: models.Now()}
	require.NoError(t, repositories.NewEventRepository(database).Create(ctx, nil, event))
	divisions := repositories.NewDivisionRepository(database)
	division := &models.Division{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		Name:             "Doubles",
		TeamSize:         2,
		RegistrationOpen: true,
		BracketType:      models.BracketSingleElimination,
		PoolCount:        1,
		GamesPerMatch:    1,
		ScoreFormat:      models.DefaultScoreFormat(),
		ScheduleStatus:   models.ScheduleOpen,
		DrawingState:     models.DrawingIdle,
		CreatedAt:        models.Now(),
	}
	require.NoError(t, divisions.Create(ctx, nil, division))

	hub := brackets.NewHub(logger)
	hubCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	deps := services.Deps{
		DB:          database,
		Divisions:   divisions,
		Users:       users,
		Courts:      repositories.NewCourtRepository(database),
		Metrics:     metrics.NewMock(),
		Logger:      logger,
		Broadcaster: services.NewHubBroadcaster(hub),
	}
	units := services.NewUnitService(deps)
	reads := services.NewReadService(deps)
	drawing := services.NewDrawingService(deps)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Units:     handlers.NewUnitHandler(units, reads, logger),
		Drawing:   handlers.NewDrawingHandler(drawing, logger),
		Schedule:  handlers.NewScheduleHandler(services.NewScheduleService(deps), reads, logger),
		Tracker:   handlers.NewTrackerHandler(services.NewTrackerService(deps), logger),
		WebSocket: handlers.NewWebSocketHandler(hub, drawing, []string{"*"}, logger),
		Health:    func(ctx context.Context) error { return database.PingContext(ctx) },
	}, middleware.NewAuthenticator(secret, "", logger), []string{"*"}, logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiEnv{server: server, divisionID: division.ID}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := middleware.IssueToken(secret, models.Actor{UserID: userID, Role: models.PlatformUser}, nil)
	require.NoError(t, err)
	return tok
}

func (e *apiEnv) do(t *testing.T, method, path, userID, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (e *apiEnv) path(suffix string) string {
	return "/api/v1/divisions/" + e.divisionID + suffix
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestRegistrationOverHTTP(t *testing.T) {
	api := newAPI(t)

	status, _ := api.do(t, http.MethodPost, api.path("/units"), "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(t, http.MethodPost, api.path("/units"), "u1", `{"partner_user_id":"u2"}`)
	require.Equal(t, http.StatusCreated, status)
	unit := body["unit"].(map[string]any)["unit"].(map[string]any)
	unitID := unit["id"].(string)

	status, body = api.do(t, http.MethodPost, api.path("/units/"+unitID+"/invite"), "u2", `{"accept":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["unit"].(map[string]any)["complete"])

	status, body = api.do(t, http.MethodPost, api.path("/units"), "u1", ``)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_registered", errorCode(body))

	status, body = api.do(t, http.MethodPut, api.path("/registration"), "u1", `{"open":false}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", errorCode(body))

	status, _ = api.do(t, http.MethodPut, api.path("/registration"), "org", `{"open":false}`)
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do(t, http.MethodGet, api.path(""), "", "")
	require.Equal(t, http.StatusOK, status)
	counts := body["division"].(map[string]any)["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["registered"])
	assert.Equal(t, float64(2), counts["players"])
}

func TestErrorStatuses(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		status int
		code   string
	}{
		{"unknown division", http.MethodGet, "/api/v1/divisions/missing", "", "", http.StatusNotFound, "division_not_found"},
		{"malformed json", http.MethodPut, api.path("/registration"), "org", `{"open":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", http.MethodPut, api.path("/registration"), "org", `{"closed":true}`, http.StatusBadRequest, "bad_request"},
		{"validation kind", http.MethodPost, api.path("/courts"), "org", `{"label":"  "}`, http.StatusBadRequest, "invalid_court_label"},
		{"state conflict kind", http.MethodPost, api.path("/drawing/start"), "org", "", http.StatusConflict, "registration_open"},
		{"unknown unit", http.MethodGet, api.path("/units/nope"), "", "", http.StatusNotFound, "unit_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	api := newAPI(t)

	resp, err := http.Get(api.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(api.server.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestWebSocketSendsDrawingStateOnConnect(t *testing.T) {
	api := newAPI(t)

	url := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/ws/divisions/" + api.divisionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg brackets.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.MessageDrawingState, msg.Type)
	assert.Equal(t, brackets.DivisionRoom(api.divisionID), msg.RoomID)
	state := msg.Payload.(map[string]any)
	assert.Equal(t, string(models.DrawingIdle), state["state"])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(api.server.URL, "http")+"/ws/divisions/missing", nil)
	assert.Error(t, err)
}
