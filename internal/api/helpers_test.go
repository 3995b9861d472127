package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/events"
	"stayhub/internal/models"
	"stayhub/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	admin = models.Principal{UserID: 1, Role: models.RoleAdmin}
	owner = models.Principal{UserID: 100, Role: models.RoleOwner}
	guest = models.Principal{UserID: 200, Role: models.RoleGuest}
	other = models.Principal{UserID: 300, Role: models.RoleOwnerGuest}
)

type testEnv struct {
	db     *database.DB
	server *HTTPServer
	auth   *Authenticator
	tokens map[int64]string
	start  time.Time
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{JWTSecret: "test-secret", Issuer: "stayhub-test"},
	}
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bookingCfg := config.BookingConfig{HoldTTL: 15 * time.Minute, MaxAdvanceDays: 365}
	bookings := service.NewBookingService(db, events.NewEventBus(), bookingCfg, &logger)
	engine := service.NewEngine(db, bookings, nil, bookingCfg, &logger)
	rooms := service.NewRoomService(db, &logger)

	env := &testEnv{
		db:     db,
		server: NewHTTPServer(cfg, engine, rooms, db, &logger),
		auth:   NewAuthenticator(cfg.Auth),
		tokens: make(map[int64]string),
		start:  models.Day(time.Now()).AddDate(0, 0, 10),
	}
	for _, p := range []models.Principal{admin, owner, guest, other} {
		token, err := env.auth.Issue(p, time.Hour)
		require.NoError(t, err)
		env.tokens[p.UserID] = token
	}
	return env
}

// date returns the day offset nights after the first seeded night.
func (e *testEnv) date(offset int) string {
	return models.FormatDate(e.start.AddDate(0, 0, offset))
}

func (e *testEnv) do(t *testing.T, method, path string, p *models.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req.Header.Set("Authorization", "Bearer "+e.tokens[p.UserID])
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func roomPayload() map[string]any {
	return map[string]any{
		"title":          "Loft near the river",
		"description":    "Bright loft with a view of the river",
		"country":        "Kazakhstan",
		"city":           "Almaty",
		"address":        "Abay ave 10",
		"property_type":  "apartment",
		"guests_cnt":     4,
		"bedrooms":       2,
		"beds":           2,
		"bathrooms":      1,
		"base_price":     10000,
		"currency":       "USD",
		"cleaning_fee":   2000,
		"min_stay":       1,
		"max_stay":       14,
	}
}

// seededRoom creates an active room owned by owner with 30 nights seeded.
func (e *testEnv) seededRoom(t *testing.T) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/rooms", &owner, roomPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var room models.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))

	rec = e.do(t, http.MethodPost, pathf("/api/v1/rooms/%d/calendar/seed", room.ID), &owner, map[string]string{
		"check_in": e.date(0), "check_out": e.date(30),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return room.ID
}

func (e *testEnv) book(t *testing.T, roomID int64, from, to int) bookingResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/bookings", &guest, map[string]any{
		"room_id": roomID, "check_in": e.date(from), "check_out": e.date(to), "guest_count": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[bookingResponse](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return context.DeadlineExceeded }
