package database

import (
	"context"
	"fmt"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/jmoiron/sqlx"
)

type calendarRow struct {
	RoomID      int64  `db:"room_id"`
	Night       string `db:"night"`
	Price       *int64 `db:"price"`
	IsAvailable bool   `db:"is_available"`
	IsBlocked   bool   `db:"is_blocked"`
	BookingID   *int64 `db:"booking_id"`
}

type rangeCounts struct {
	Seeded int `db:"seeded"`
	Held   int `db:"held"`
}

func bookableClause(alias string) string {
	return fmt.Sprintf("%[1]s.is_available AND NOT %[1]s.is_blocked AND %[1]s.booking_id IS NULL", alias)
}

func checkRange(r models.DateRange) error {
	if !r.Valid() {
		return domain.FieldError("check_out", "check_out must be after check_in")
	}
	return nil
}

func rangeArgs(roomID int64, r models.DateRange) []any {
	return []any{roomID, models.FormatDate(r.CheckIn), models.FormatDate(r.CheckOut)}
}

// QueryAvailability returns one entry per night of r. Nights without a row
// are reported as unseeded.
func (s *store) QueryAvailability(ctx context.Context, roomID int64, r models.DateRange) ([]models.CalendarDay, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}

	var rows []calendarRow
	query := s.rebind(`SELECT room_id, night, price, is_available, is_blocked, booking_id
		FROM calendar_days c WHERE c.room_id = ? AND c.night >= ? AND c.night < ? ORDER BY c.night`)
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, rangeArgs(roomID, r)...); err != nil {
		return nil, domain.Storage("query availability", err)
	}

	byNight := make(map[string]calendarRow, len(rows))
	for _, row := range rows {
		byNight[row.Night] = row
	}

	days := make([]models.CalendarDay, 0, r.Nights())
	for _, night := range r.Dates() {
		day := models.CalendarDay{RoomID: roomID, Date: night}
		if row, ok := byNight[models.FormatDate(night)]; ok {
			day.Seeded = true
			day.Price = row.Price
			day.IsAvailable = row.IsAvailable
			day.IsBlocked = row.IsBlocked
			day.BookingID = row.BookingID
		}
		days = append(days, day)
	}
	return days, nil
}

func (s *store) countRange(ctx context.Context, roomID int64, r models.DateRange) (rangeCounts, error) {
	var counts rangeCounts
	query := s.rebind(`SELECT COUNT(*) AS seeded,
			COALESCE(SUM(CASE WHEN c.booking_id IS NOT NULL THEN 1 ELSE 0 END), 0) AS held
		FROM calendar_days c WHERE c.room_id = ? AND c.night >= ? AND c.night < ?`)
	if err := sqlx.GetContext(ctx, s.q, &counts, query, rangeArgs(roomID, r)...); err != nil {
		return counts, domain.Storage("count calendar range", err)
	}
	return counts, nil
}

func (s *store) countBookable(ctx context.Context, roomID int64, r models.DateRange) (int, error) {
	var n int
	query := s.rebind(`SELECT COUNT(*) FROM calendar_days c
		WHERE c.room_id = ? AND c.night >= ? AND c.night < ? AND ` + bookableClause("c"))
	if err := sqlx.GetContext(ctx, s.q, &n, query, rangeArgs(roomID, r)...); err != nil {
		return 0, domain.Storage("count bookable nights", err)
	}
	return n, nil
}

// ReserveRange holds all nights of r for bookingID or returns ErrConflict
// without writing. A partial update is reported as ErrConflict as well; the
// caller's transaction must then roll back.
func (s *store) ReserveRange(ctx context.Context, roomID int64, r models.DateRange, bookingID int64) error {
	if err := checkRange(r); err != nil {
		return err
	}
	nights := r.Nights()

	bookable, err := s.countBookable(ctx, roomID, r)
	if err != nil {
		return err
	}
	if bookable != nights {
		return domain.Errorf(domain.KindConflict, "room %d: %d of %d nights in %s are free", roomID, bookable, nights, r)
	}

	query := s.rebind(`UPDATE calendar_days SET booking_id = ?, is_available = FALSE
		WHERE room_id = ? AND night >= ? AND night < ? AND ` + bookableClause("calendar_days"))
	args := append([]any{bookingID}, rangeArgs(roomID, r)...)
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Storage("reserve range", err)
	}
	n, err := rowsAffected(res, "reserve range")
	if err != nil {
		return err
	}
	if int(n) != nights {
		return domain.Errorf(domain.KindConflict, "room %d: reserved %d of %d nights in %s", roomID, n, nights, r)
	}
	return nil
}

// ReleaseRange frees the nights of r held by bookingID. Releasing a range that
// holds nothing returns ErrNotFound and changes nothing.
func (s *store) ReleaseRange(ctx context.Context, roomID int64, r models.DateRange, bookingID int64) error {
	if err := checkRange(r); err != nil {
		return err
	}

	query := s.rebind(`UPDATE calendar_days SET booking_id = NULL, is_available = TRUE
		WHERE booking_id = ? AND room_id = ? AND night >= ? AND night < ?`)
	args := append([]any{bookingID}, rangeArgs(roomID, r)...)
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Storage("release range", err)
	}
	n, err := rowsAffected(res, "release range")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Errorf(domain.KindNotFound, "booking %d holds no nights of room %d in %s", bookingID, roomID, r)
	}
	return nil
}

func (s *store) BlockRange(ctx context.Context, roomID int64, r models.DateRange) error {
	return s.setBlocked(ctx, roomID, r, true)
}

func (s *store) UnblockRange(ctx context.Context, roomID int64, r models.DateRange) error {
	return s.setBlocked(ctx, roomID, r, false)
}

func (s *store) setBlocked(ctx context.Context, roomID int64, r models.DateRange, blocked bool) error {
	if err := checkRange(r); err != nil {
		return err
	}

	counts, err := s.countRange(ctx, roomID, r)
	if err != nil {
		return err
	}
	if counts.Seeded != r.Nights() {
		return domain.Errorf(domain.KindNotFound, "room %d: calendar is not seeded for %s", roomID, r)
	}
	if counts.Held > 0 {
		return domain.Errorf(domain.KindConflict, "room %d: %d nights in %s are held by bookings", roomID, counts.Held, r)
	}

	query := s.rebind(`UPDATE calendar_days SET is_blocked = ? WHERE room_id = ? AND night >= ? AND night < ?`)
	args := append([]any{blocked}, rangeArgs(roomID, r)...)
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return domain.Storage("set blocked", err)
	}
	return nil
}

// SeedCalendar inserts the missing nights of r as available. Existing nights
// are left untouched.
func (s *store) SeedCalendar(ctx context.Context, roomID int64, r models.DateRange) (int, error) {
	if err := checkRange(r); err != nil {
		return 0, err
	}

	query := s.rebind(`INSERT INTO calendar_days (room_id, night, is_available, is_blocked)
		VALUES (?, ?, TRUE, FALSE) ON CONFLICT (room_id, night) DO NOTHING`)

	inserted := 0
	for _, night := range r.Dates() {
		res, err := s.q.ExecContext(ctx, query, roomID, models.FormatDate(night))
		if err != nil {
			return inserted, domain.Storage("seed calendar", err)
		}
		n, err := rowsAffected(res, "seed calendar")
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// SetNightlyPrice sets the override for every night of r; nil clears it.
func (s *store) SetNightlyPrice(ctx context.Context, roomID int64, r models.DateRange, price *int64) error {
	if err := checkRange(r); err != nil {
		return err
	}

	counts, err := s.countRange(ctx, roomID, r)
	if err != nil {
		return err
	}
	if counts.Seeded != r.Nights() {
		return domain.Errorf(domain.KindNotFound, "room %d: calendar is not seeded for %s", roomID, r)
	}

	query := s.rebind(`UPDATE calendar_days SET price = ? WHERE room_id = ? AND night >= ? AND night < ?`)
	args := append([]any{price}, rangeArgs(roomID, r)...)
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return domain.Storage("set nightly price", err)
	}
	return nil
}
