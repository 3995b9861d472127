package service

import (
	"context"
	"fmt"
	"io"

	"stayhub/internal/domain"
	"stayhub/internal/export"
	"stayhub/internal/models"
	"stayhub/internal/validation"

	"github.com/rs/zerolog"
)

// RoomService manages listings and their calendars on behalf of owners.
type RoomService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewRoomService(store domain.Store, logger *zerolog.Logger) *RoomService {
	return &RoomService{store: store, logger: logger}
}

// Create publishes a new listing owned by p. The calendar starts empty; nights
// become bookable only after SeedCalendar.
func (s *RoomService) Create(ctx context.Context, p models.Principal, in *models.RoomCreate) (*models.Room, error) {
	if !p.CanListRooms() {
		return nil, domain.Forbidden("role %s cannot create listings", p.Role)
	}

	room := in.Build()
	room.ID = 0
	room.OwnerID = p.UserID
	room.LastBookedAt = nil
	if err := validation.Struct(room); err != nil {
		return nil, err
	}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("room_id", room.ID).Int64("owner_id", room.OwnerID).Msg("room created")
	return room, nil
}

// Get returns the room. Hidden and blocked listings are reported as missing
// to anyone but their managers.
func (s *RoomService) Get(ctx context.Context, p models.Principal, id int64) (*models.Room, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeRoom(p, room) {
		return nil, domain.NotFound("room", id)
	}
	return room, nil
}

// Update applies the set fields of u and re-validates the whole listing.
func (s *RoomService) Update(ctx context.Context, p models.Principal, id int64, u models.RoomUpdate) (*models.Room, error) {
	if u.Empty() {
		return nil, domain.Validation("no fields to update", nil)
	}

	var updated *models.Room
	err := s.manage(ctx, p, id, func(tx domain.Tx, room *models.Room) error {
		u.Apply(room)
		if err := validation.Struct(room); err != nil {
			return err
		}
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// manage runs fn in a transaction holding the room lock, after checking that
// p may manage the room.
func (s *RoomService) manage(ctx context.Context, p models.Principal, id int64, fn func(tx domain.Tx, room *models.Room) error) error {
	return s.store.WithTx(ctx, func(tx domain.Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return err
		}
		if err := canManageRoom(p, room); err != nil {
			return err
		}
		return fn(tx, room)
	})
}

func checkCalendarRange(r models.DateRange) error {
	if !r.Valid() {
		return domain.FieldError("check_out", "check_out must be after check_in")
	}
	if r.Nights() > models.MaxRangeNights {
		return domain.FieldError("check_out", fmt.Sprintf("range cannot exceed %d nights", models.MaxRangeNights))
	}
	return nil
}

// SeedCalendar creates the missing nights of r as available and returns how
// many were inserted.
func (s *RoomService) SeedCalendar(ctx context.Context, p models.Principal, id int64, r models.DateRange) (int, error) {
	if err := checkCalendarRange(r); err != nil {
		return 0, err
	}

	var inserted int
	err := s.manage(ctx, p, id, func(tx domain.Tx, _ *models.Room) error {
		n, err := tx.SeedCalendar(ctx, id, r)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("room_id", id).Str("range", r.String()).Int("inserted", inserted).Msg("calendar seeded")
	return inserted, nil
}

// Block closes r for new bookings. Nights held by bookings cannot be blocked.
func (s *RoomService) Block(ctx context.Context, p models.Principal, id int64, r models.DateRange) error {
	if err := checkCalendarRange(r); err != nil {
		return err
	}
	return s.manage(ctx, p, id, func(tx domain.Tx, _ *models.Room) error {
		return tx.BlockRange(ctx, id, r)
	})
}

func (s *RoomService) Unblock(ctx context.Context, p models.Principal, id int64, r models.DateRange) error {
	if err := checkCalendarRange(r); err != nil {
		return err
	}
	return s.manage(ctx, p, id, func(tx domain.Tx, _ *models.Room) error {
		return tx.UnblockRange(ctx, id, r)
	})
}

// SetNightlyPrice overrides the price of every night of r; nil restores the
// computed rate.
func (s *RoomService) SetNightlyPrice(ctx context.Context, p models.Principal, id int64, r models.DateRange, price *int64) error {
	if err := checkCalendarRange(r); err != nil {
		return err
	}
	if price != nil && (*price < 1 || *price > models.MaxPrice) {
		return domain.FieldError("price", fmt.Sprintf("price must be between 1 and %d", int64(models.MaxPrice)))
	}
	return s.manage(ctx, p, id, func(tx domain.Tx, _ *models.Room) error {
		return tx.SetNightlyPrice(ctx, id, r, price)
	})
}

// Calendar returns the availability of every night of r.
func (s *RoomService) Calendar(ctx context.Context, p models.Principal, id int64, r models.DateRange) ([]models.CalendarDay, error) {
	if err := checkCalendarRange(r); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.store.QueryAvailability(ctx, id, r)
}

// ListBookings returns all bookings of the room ordered by check-in.
func (s *RoomService) ListBookings(ctx context.Context, p models.Principal, id int64) ([]*models.Booking, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canManageRoom(p, room); err != nil {
		return nil, err
	}
	return s.store.ListBookingsForRoom(ctx, id)
}

// ExportBookings writes the room's bookings to w as an XLSX workbook.
func (s *RoomService) ExportBookings(ctx context.Context, p models.Principal, id int64, w io.Writer) error {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if err := canManageRoom(p, room); err != nil {
		return err
	}
	bookings, err := s.store.ListBookingsForRoom(ctx, id)
	if err != nil {
		return err
	}
	return export.WriteBookings(w, room, bookings)
}
