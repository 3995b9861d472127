package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())

	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	logger := zerolog.Nop()
	down := NewHTTPServer(testAPIConfig(), nil, nil, failingPinger{}, &logger)
	env.server = down
	rec = env.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode[errorEnvelope](t, rec).Error.Code)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())

	send := func(header string) int {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	sign := func(claims Claims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := func() Claims {
		return Claims{
			UserID: guest.UserID,
			Role:   string(guest.Role),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "stayhub-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	assert.Equal(t, http.StatusOK, send("Bearer "+sign(valid(), "test-secret")))
	assert.Equal(t, http.StatusUnauthorized, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("Token abc"))
	assert.Equal(t, http.StatusUnauthorized, send("Bearer not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+sign(valid(), "other-secret")))

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+sign(expired, "test-secret")))

	foreign := valid()
	foreign.Issuer = "someone-else"
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+sign(foreign, "test-secret")))

	badRole := valid()
	badRole.Role = "superuser"
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+sign(badRole, "test-secret")))

	noUser := valid()
	noUser.UserID = 0
	assert.Equal(t, http.StatusUnauthorized, send("Bearer "+sign(noUser, "test-secret")))
}

func TestAuthenticator_Verify(t *testing.T) {
	auth := NewAuthenticator(testAPIConfig().Auth)

	token, err := auth.Issue(other, time.Hour)
	require.NoError(t, err)
	p, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, other, p)

	token, err = auth.Issue(other, -time.Minute)
	require.NoError(t, err)
	_, err = auth.Verify(token)
	assert.ErrorIs(t, err, errExpiredToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Verify(none)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestBookingLifecycle(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	roomID := env.seededRoom(t)

	b := env.book(t, roomID, 2, 5)
	assert.Equal(t, models.StatusCreated, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
	assert.Equal(t, env.date(2), b.CheckIn)
	assert.Equal(t, 3, b.Nights)
	assert.Len(t, b.BookingNumber, 12)

	t.Run("Overlap", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &other, map[string]any{
			"room_id": roomID, "check_in": env.date(4), "check_out": env.date(6), "guest_count": 1,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(domain.KindDatesUnavailable), decode[errorEnvelope](t, rec).Error.Code)
	})

	t.Run("Access", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, pathf("/api/v1/bookings/%d", b.ID), &owner, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, pathf("/api/v1/bookings/%d", b.ID), &other, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/v1/bookings/99999", &admin, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = env.do(t, http.MethodPost, pathf("/api/v1/bookings/%d/confirm", b.ID), &owner, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Confirm", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pathf("/api/v1/bookings/%d/confirm", b.ID), &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[bookingResponse](t, rec)
		assert.Equal(t, models.StatusConfirmed, got.Status)
		assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

		rec = env.do(t, http.MethodPost, pathf("/api/v1/bookings/%d/reject", b.ID), &owner, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(domain.KindInvalidTransition), decode[errorEnvelope](t, rec).Error.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pathf("/api/v1/bookings/%d/cancel", b.ID), &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[bookingResponse](t, rec)
		assert.Equal(t, models.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledBy)
		assert.Equal(t, guest.UserID, *got.CancelledBy)

		rec = env.do(t, http.MethodPost, pathf("/api/v1/bookings/%d/confirm", b.ID), &guest, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(domain.KindAlreadyTerminal), decode[errorEnvelope](t, rec).Error.Code)
	})

	t.Run("NightsReleased", func(t *testing.T) {
		again := env.book(t, roomID, 2, 5)
		assert.NotEqual(t, b.ID, again.ID)
	})

	t.Run("Mine", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[map[string][]bookingResponse](t, rec)
		assert.Len(t, list["bookings"], 2)
	})
}

func TestBookingValidation(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	roomID := env.seededRoom(t)

	t.Run("BadDate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &guest, map[string]any{
			"room_id": roomID, "check_in": "10.01.2025", "check_out": env.date(3), "guest_count": 1,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorEnvelope](t, rec)
		assert.Equal(t, string(domain.KindValidation), body.Error.Code)
		assert.Contains(t, body.Error.Details, "check_in")
	})

	t.Run("Missing", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &guest, map[string]any{"room_id": roomID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorEnvelope](t, rec)
		assert.Contains(t, body.Error.Details, "check_in")
		assert.Contains(t, body.Error.Details, "guest_count")
	})

	t.Run("UnknownField", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &guest, `{"room_id": 1, "nights": 3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &guest, map[string]any{
			"room_id": roomID, "check_in": env.date(5), "check_out": env.date(3), "guest_count": 1,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OwnerCannotBook", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings", &owner, map[string]any{
			"room_id": roomID, "check_in": env.date(1), "check_out": env.date(3), "guest_count": 1,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings/abc", &guest, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRoomRoutes(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	roomID := env.seededRoom(t)

	t.Run("CreateForbiddenForGuest", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/rooms", &guest, map[string]any{"title": "Guest listing"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/rooms", &owner, map[string]any{"title": "Hut"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorEnvelope](t, rec)
		assert.Contains(t, body.Error.Details, "title")
		assert.Contains(t, body.Error.Details, "currency")
	})

	t.Run("CreateAvailability", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/rooms", &owner, roomPayload())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.True(t, decode[models.Room](t, rec).IsAvailable, "absent is_available defaults to true")

		payload := roomPayload()
		payload["is_available"] = false
		rec = env.do(t, http.MethodPost, "/api/v1/rooms", &owner, payload)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.False(t, decode[models.Room](t, rec).IsAvailable)
	})

	t.Run("Patch", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, pathf("/api/v1/rooms/%d", roomID), &owner, map[string]any{"base_price": 12000})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(12000), decode[models.Room](t, rec).BasePrice)

		rec = env.do(t, http.MethodPatch, pathf("/api/v1/rooms/%d", roomID), &other, map[string]any{"base_price": 1})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodPatch, pathf("/api/v1/rooms/%d", roomID), &owner, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Calendar", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pathf("/api/v1/rooms/%d/calendar/block", roomID), &owner, map[string]string{
			"check_in": env.date(10), "check_out": env.date(12),
		})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		price := 5000
		rec = env.do(t, http.MethodPut, pathf("/api/v1/rooms/%d/calendar/price", roomID), &owner, map[string]any{
			"check_in": env.date(12), "check_out": env.date(13), "price": price,
		})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/calendar?check_in=%s&check_out=%s", roomID, env.date(10), env.date(13)), &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		days := decode[[]calendarDayResponse](t, rec)
		require.Len(t, days, 3)
		assert.True(t, days[0].IsBlocked)
		assert.False(t, days[2].IsBlocked)
		require.NotNil(t, days[2].Price)
		assert.Equal(t, int64(5000), *days[2].Price)

		rec = env.do(t, http.MethodPost, pathf("/api/v1/rooms/%d/calendar/unblock", roomID), &guest, map[string]string{
			"check_in": env.date(10), "check_out": env.date(12),
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/calendar", roomID), &guest, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(t, http.MethodPut, pathf("/api/v1/rooms/%d/calendar/price", roomID), &owner, map[string]any{
			"check_in": env.date(12), "check_out": env.date(13), "price": -5,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Quote", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/quote?check_in=%s&check_out=%s", roomID, env.date(12), env.date(13)), &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		q := decode[quoteResponse](t, rec)
		require.Len(t, q.Nights, 1)
		assert.True(t, q.Nights[0].Override)
		assert.Equal(t, int64(5000), q.Subtotal)
		assert.Equal(t, int64(7000), q.Total)
	})

	t.Run("Search", func(t *testing.T) {
		env.book(t, roomID, 0, 2)

		rec := env.do(t, http.MethodGet, "/api/v1/rooms/search?city=almaty&guests=2", &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decode[searchResponse](t, rec)
		require.Len(t, res.Rooms, 1)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, models.DefaultPageSize, res.PageSize)

		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/search?check_in=%s&check_out=%s", env.date(1), env.date(3)), &guest, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[searchResponse](t, rec).Rooms)

		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/search?check_in=%s", env.date(1)), &guest, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/v1/rooms/search?guests=many", &guest, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Hidden", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, pathf("/api/v1/rooms/%d", roomID), &owner, map[string]any{"status": "hidden"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d", roomID), &guest, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/quote?check_in=%s&check_out=%s", roomID, env.date(12), env.date(13)), &guest, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d", roomID), &owner, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRoomBookingsExport(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	roomID := env.seededRoom(t)
	env.book(t, roomID, 1, 3)

	rec := env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/bookings", roomID), &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]bookingResponse](t, rec)["bookings"], 1)

	rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/bookings/export", roomID), &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), pathf("room_%d_bookings.xlsx", roomID))
	assert.NotZero(t, rec.Body.Len())

	rec = env.do(t, http.MethodGet, pathf("/api/v1/rooms/%d/bookings/export", roomID), &guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	env := newTestEnv(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/bookings", &guest, nil).Code)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/bookings", &guest, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other principals have their own bucket
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/bookings", &other, nil).Code)
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindForbidden, http.StatusForbidden},
		{domain.KindDatesUnavailable, http.StatusConflict},
		{domain.KindConflict, http.StatusConflict},
		{domain.KindAlreadyTerminal, http.StatusConflict},
		{domain.KindInvalidTransition, http.StatusConflict},
		{domain.KindHoldExpired, http.StatusConflict},
		{domain.KindStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForKind(tt.kind))
		})
	}
}
