// Package pricing resolves the price of a stay from the room's base rate,
// its weekend multiplier and per-night overrides.
package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"
)

// IsWeekend reports whether the night starting on d is charged at the weekend
// rate. Friday and Saturday nights are.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// NightPrice resolves the price of one night. An override wins over the
// computed rate.
func NightPrice(room *models.Room, day models.CalendarDay) models.NightPrice {
	np := models.NightPrice{Date: day.Date, Weekend: IsWeekend(day.Date)}
	if day.Price != nil {
		np.Price = *day.Price
		np.Override = true
		return np
	}
	if np.Weekend {
		np.Price = int64(math.Round(float64(room.BasePrice) * room.WeekendMultiplier))
	} else {
		np.Price = room.BasePrice
	}
	return np
}

// CheckStay validates r against the room's stay limits.
func CheckStay(room *models.Room, r models.DateRange) error {
	if !r.Valid() {
		return domain.FieldError("check_out", "check_out must be after check_in")
	}
	nights := r.Nights()
	if nights > models.MaxRangeNights {
		return domain.FieldError("check_out", fmt.Sprintf("stay cannot exceed %d nights", models.MaxRangeNights))
	}
	if nights < room.MinStay {
		return domain.FieldError("check_out", fmt.Sprintf("minimum stay is %d nights", room.MinStay))
	}
	if room.MaxStay > 0 && nights > room.MaxStay {
		return domain.FieldError("check_out", fmt.Sprintf("maximum stay is %d nights", room.MaxStay))
	}
	return nil
}

// Compute prices every night of r. days may be partial; nights missing from
// it are priced without an override. Compute does not look at availability.
func Compute(room *models.Room, r models.DateRange, days []models.CalendarDay) (*models.Quote, error) {
	if err := CheckStay(room, r); err != nil {
		return nil, err
	}

	overrides := make(map[string]models.CalendarDay, len(days))
	for _, d := range days {
		overrides[models.FormatDate(d.Date)] = d
	}

	q := &models.Quote{
		RoomID:      room.ID,
		CheckIn:     r.CheckIn,
		CheckOut:    r.CheckOut,
		CleaningFee: room.CleaningFee,
		Currency:    room.Currency,
	}
	for _, night := range r.Dates() {
		day, ok := overrides[models.FormatDate(night)]
		if !ok {
			day = models.CalendarDay{RoomID: room.ID, Date: night}
		}
		np := NightPrice(room, day)
		q.Nights = append(q.Nights, np)
		q.Subtotal += np.Price
	}

	q.Total = q.Subtotal + q.CleaningFee
	q.PricePerNight = int64(math.Round(float64(q.Subtotal) / float64(len(q.Nights))))
	return q, nil
}

// Source is the read side of the store the resolver needs.
type Source interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	QueryAvailability(ctx context.Context, roomID int64, r models.DateRange) ([]models.CalendarDay, error)
}

type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// QuoteRoom loads the room and its calendar and prices r.
func (r *Resolver) QuoteRoom(ctx context.Context, roomID int64, dr models.DateRange) (*models.Quote, error) {
	room, err := r.src.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := CheckStay(room, dr); err != nil {
		return nil, err
	}
	days, err := r.src.QueryAvailability(ctx, roomID, dr)
	if err != nil {
		return nil, err
	}
	return Compute(room, dr, days)
}
