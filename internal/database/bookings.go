package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/jmoiron/sqlx"
)

var errNoReturnedID = errors.New("insert returned no id")

const bookingColumns = `id, booking_number, room_id, guest_id, guest_cnt, check_in, check_out,
	status, payment_status, price_per_night, total_amount, currency, cancelled_by,
	expires_at, version, created_at, updated_at`

type bookingRow struct {
	ID            int64                `db:"id"`
	BookingNumber string               `db:"booking_number"`
	RoomID        int64                `db:"room_id"`
	GuestID       int64                `db:"guest_id"`
	GuestCnt      int                  `db:"guest_cnt"`
	CheckIn       string               `db:"check_in"`
	CheckOut      string               `db:"check_out"`
	Status        models.BookingStatus `db:"status"`
	PaymentStatus models.PaymentStatus `db:"payment_status"`
	PricePerNight int64                `db:"price_per_night"`
	TotalAmount   int64                `db:"total_amount"`
	Currency      models.Currency      `db:"currency"`
	CancelledBy   *int64               `db:"cancelled_by"`
	ExpiresAt     time.Time            `db:"expires_at"`
	Version       int64                `db:"version"`
	CreatedAt     time.Time            `db:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at"`
}

func (r *bookingRow) toModel() (*models.Booking, error) {
	checkIn, err := models.ParseDate(r.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking %d check_in: %w", r.ID, err)
	}
	checkOut, err := models.ParseDate(r.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking %d check_out: %w", r.ID, err)
	}
	return &models.Booking{
		ID:            r.ID,
		BookingNumber: r.BookingNumber,
		RoomID:        r.RoomID,
		GuestID:       r.GuestID,
		GuestCnt:      r.GuestCnt,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		PricePerNight: r.PricePerNight,
		TotalAmount:   r.TotalAmount,
		Currency:      r.Currency,
		CancelledBy:   r.CancelledBy,
		ExpiresAt:     r.ExpiresAt.UTC(),
		Version:       r.Version,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}

func toModels(rows []bookingRow) ([]*models.Booking, error) {
	out := make([]*models.Booking, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toModel()
		if err != nil {
			return nil, domain.Storage("decode booking", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	query := s.rebind(`INSERT INTO bookings (
				booking_number, room_id, guest_id, guest_cnt, check_in, check_out,
				status, payment_status, price_per_night, total_amount, currency,
				expires_at, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	err := s.q.QueryRowxContext(ctx, query,
		booking.BookingNumber,
		booking.RoomID,
		booking.GuestID,
		booking.GuestCnt,
		models.FormatDate(booking.CheckIn),
		models.FormatDate(booking.CheckOut),
		booking.Status,
		booking.PaymentStatus,
		booking.PricePerNight,
		booking.TotalAmount,
		booking.Currency,
		booking.ExpiresAt.UTC(),
		1,
		now,
		now,
	).Scan(&booking.ID)
	if err != nil {
		return domain.Storage("insert booking", err)
	}

	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (s *store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var row bookingRow
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.q, &row, query, id); err != nil {
		return nil, notFoundOr(err, "booking", id, "get booking")
	}
	b, err := row.toModel()
	if err != nil {
		return nil, domain.Storage("decode booking", err)
	}
	return b, nil
}

func (s *store) TransitionBooking(ctx context.Context, id int64, t models.Transition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	query := s.rebind(`UPDATE bookings SET
				status = ?,
				payment_status = COALESCE(?, payment_status),
				cancelled_by = COALESCE(?, cancelled_by),
				version = version + 1,
				updated_at = ?
			WHERE id = ? AND status = ?`)

	res, err := s.q.ExecContext(ctx, query, t.To, t.PaymentStatus, t.CancelledBy, at.UTC(), id, t.From)
	if err != nil {
		return domain.Storage("transition booking", err)
	}
	n, err := rowsAffected(res, "transition booking")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// ListStaleHolds returns unconfirmed holds whose deadline passed before now,
// oldest deadline first.
func (s *store) ListStaleHolds(ctx context.Context, now time.Time, limit int) ([]*models.Booking, error) {
	var rows []bookingRow
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = ? AND expires_at < ? ORDER BY expires_at, id LIMIT ?`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, models.StatusCreated, now.UTC(), limit); err != nil {
		return nil, domain.Storage("list stale holds", err)
	}
	return toModels(rows)
}

func (s *store) ListBookingsForRoom(ctx context.Context, roomID int64) ([]*models.Booking, error) {
	var rows []bookingRow
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings WHERE room_id = ? ORDER BY check_in, id`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, roomID); err != nil {
		return nil, domain.Storage("list bookings for room", err)
	}
	return toModels(rows)
}

func (s *store) ListBookingsForGuest(ctx context.Context, guestID int64) ([]*models.Booking, error) {
	var rows []bookingRow
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings WHERE guest_id = ? ORDER BY created_at DESC, id DESC`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, guestID); err != nil {
		return nil, domain.Storage("list bookings for guest", err)
	}
	return toModels(rows)
}
