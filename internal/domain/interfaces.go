package domain

import (
	"context"
	"time"

	"stayhub/internal/models"
)

// CalendarStore keeps the per-night availability of rooms.
type CalendarStore interface {
	QueryAvailability(ctx context.Context, roomID int64, r models.DateRange) ([]models.CalendarDay, error)
	// ReserveRange marks every night of r as held by bookingID, or nothing at all.
	ReserveRange(ctx context.Context, roomID int64, r models.DateRange, bookingID int64) error
	ReleaseRange(ctx context.Context, roomID int64, r models.DateRange, bookingID int64) error
	BlockRange(ctx context.Context, roomID int64, r models.DateRange) error
	UnblockRange(ctx context.Context, roomID int64, r models.DateRange) error
	SeedCalendar(ctx context.Context, roomID int64, r models.DateRange) (int, error)
	SetNightlyPrice(ctx context.Context, roomID int64, r models.DateRange, price *int64) error
}

type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	// LockRoom loads the room and serializes other writers on it until the
	// surrounding transaction ends.
	LockRoom(ctx context.Context, id int64) (*models.Room, error)
	UpdateRoom(ctx context.Context, room *models.Room) error
	TouchLastBooked(ctx context.Context, id int64, at time.Time) error
	SearchRooms(ctx context.Context, f models.RoomFilter, r *models.DateRange, p models.Page) ([]*models.Room, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// TransitionBooking applies t only if the booking is still in t.From.
	// It returns ErrConcurrentModification when no row matched.
	TransitionBooking(ctx context.Context, id int64, t models.Transition) error
	ListStaleHolds(ctx context.Context, now time.Time, limit int) ([]*models.Booking, error)
	ListBookingsForRoom(ctx context.Context, roomID int64) ([]*models.Booking, error)
	ListBookingsForGuest(ctx context.Context, guestID int64) ([]*models.Booking, error)
}

// Tx is the set of store operations available inside a transaction.
type Tx interface {
	CalendarStore
	RoomStore
	BookingStore
}

// Store is the durable store. WithTx commits when fn returns nil and rolls
// back otherwise, including on panic.
type Store interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Locker is a best-effort mutual exclusion primitive shared between replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}
