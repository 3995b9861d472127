package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/domain"
	"stayhub/internal/events"
	"stayhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminID = int64(1)
	ownerID = int64(100)
	guestID = int64(200)
	otherID = int64(300)
)

var (
	admin = models.Principal{UserID: adminID, Role: models.RoleAdmin}
	owner = models.Principal{UserID: ownerID, Role: models.RoleOwner}
	guest = models.Principal{UserID: guestID, Role: models.RoleGuest}
	other = models.Principal{UserID: otherID, Role: models.RoleOwnerGuest}
)

// clock is a settable time source shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recorder collects published booking events.
type recorder struct {
	mu     sync.Mutex
	events map[string][]events.BookingEventPayload
}

func (r *recorder) handler(event *events.Event) error {
	var p events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	r.mu.Lock()
	r.events[event.Type] = append(r.events[event.Type], p)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[eventType])
}

type fixture struct {
	db       *database.DB
	clock    *clock
	bookings *BookingService
	engine   *Engine
	rooms    *RoomService
	events   *recorder
	cfg      config.BookingConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newFixtureWithDB(t, db, nil)
}

func newFixtureWithDB(t *testing.T, db *database.DB, locker domain.Locker) *fixture {
	t.Helper()
	logger := zerolog.Nop()

	rec := &recorder{events: make(map[string][]events.BookingEventPayload)}
	bus := events.NewEventBus()
	for _, et := range events.BookingEventTypes {
		bus.Subscribe(et, rec.handler)
	}

	cfg := config.BookingConfig{
		HoldTTL:         15 * time.Minute,
		MaxAdvanceDays:  365,
		SweepBatchSize:  100,
		SweepLockTTL:    time.Minute,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}

	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	bookings := NewBookingService(db, bus, cfg, &logger)
	bookings.now = clk.Now

	f := &fixture{
		db:       db,
		clock:    clk,
		bookings: bookings,
		rooms:    NewRoomService(db, &logger),
		events:   rec,
		cfg:      cfg,
	}
	f.engine = NewEngine(db, bookings, locker, cfg, &logger)
	return f
}

func newRoom() *models.RoomCreate {
	return &models.RoomCreate{Room: models.Room{
		Title:             "Loft near the river",
		Description:       "Bright loft with a view of the river",
		Country:           "Kazakhstan",
		City:              "Almaty",
		Address:           "Abay ave 10",
		PropertyType:      models.PropertyApartment,
		GuestsCnt:         4,
		Bedrooms:          2,
		Beds:              2,
		Bathrooms:         1,
		BasePrice:         10000,
		Currency:          models.CurrencyUSD,
		CleaningFee:       2000,
		WeekendMultiplier: 1.5,
		MinStay:           1,
		MaxStay:           14,
	}}
}

// seededRoom creates a room owned by ownerID with January and February seeded.
func (f *fixture) seededRoom(t *testing.T) *models.Room {
	t.Helper()
	ctx := context.Background()
	room, err := f.rooms.Create(ctx, owner, newRoom())
	require.NoError(t, err)
	_, err = f.rooms.SeedCalendar(ctx, owner, room.ID, span("2025-01-01", "2025-03-01"))
	require.NoError(t, err)
	return room
}

func (f *fixture) book(t *testing.T, roomID int64, in, out string) *models.Booking {
	t.Helper()
	b, err := f.engine.RequestBooking(context.Background(), guest, models.BookingRequest{
		RoomID:     roomID,
		Range:      span(in, out),
		GuestCount: 2,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) heldBy(t *testing.T, roomID int64, r models.DateRange) []int64 {
	t.Helper()
	days, err := f.db.QueryAvailability(context.Background(), roomID, r)
	require.NoError(t, err)
	ids := make([]int64, 0, len(days))
	for _, d := range days {
		if d.BookingID != nil {
			ids = append(ids, *d.BookingID)
		}
	}
	return ids
}

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func span(in, out string) models.DateRange {
	return models.DateRange{CheckIn: day(in), CheckOut: day(out)}
}
