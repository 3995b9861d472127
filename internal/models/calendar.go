package models

import "time"

// CalendarDay is the availability record of one night of one room.
// Seeded is false for nights that have no stored row.
type CalendarDay struct {
	RoomID      int64     `json:"room_id"`
	Date        time.Time `json:"date"`
	Price       *int64    `json:"price,omitempty"`
	IsAvailable bool      `json:"is_available"`
	IsBlocked   bool      `json:"is_blocked"`
	BookingID   *int64    `json:"booking_id,omitempty"`
	Seeded      bool      `json:"seeded"`
}

// Bookable reports whether the night can be taken by a new hold.
func (d CalendarDay) Bookable() bool {
	return d.Seeded && d.IsAvailable && !d.IsBlocked && d.BookingID == nil
}

// NightPrice is one line of a quote.
type NightPrice struct {
	Date     time.Time `json:"date"`
	Price    int64     `json:"price"`
	Weekend  bool      `json:"weekend"`
	Override bool      `json:"override"`
}

// Quote is the resolved price of a stay.
type Quote struct {
	RoomID        int64        `json:"room_id"`
	CheckIn       time.Time    `json:"check_in"`
	CheckOut      time.Time    `json:"check_out"`
	Nights        []NightPrice `json:"nights"`
	Subtotal      int64        `json:"subtotal"`
	CleaningFee   int64        `json:"cleaning_fee"`
	Total         int64        `json:"total"`
	PricePerNight int64        `json:"price_per_night"`
	Currency      Currency     `json:"currency"`
}
