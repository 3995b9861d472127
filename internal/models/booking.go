package models

import "time"

type BookingStatus string

const (
	StatusCreated   BookingStatus = "created"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusExpired   BookingStatus = "expired"
	StatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no transition may leave the status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Holding reports whether a booking in this status owns calendar nights.
func (s BookingStatus) Holding() bool {
	return s == StatusCreated || s == StatusConfirmed
}

var transitions = map[BookingStatus][]BookingStatus{
	StatusCreated:   {StatusConfirmed, StatusRejected, StatusExpired, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Booking struct {
	ID            int64         `json:"id"`
	BookingNumber string        `json:"booking_number"`
	RoomID        int64         `json:"room_id"`
	GuestID       int64         `json:"guest_id"`
	GuestCnt      int           `json:"guest_cnt"`
	CheckIn       time.Time     `json:"check_in"`
	CheckOut      time.Time     `json:"check_out"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PricePerNight int64         `json:"price_per_night"`
	TotalAmount   int64         `json:"total_amount"`
	Currency      Currency      `json:"currency"`
	CancelledBy   *int64        `json:"cancelled_by,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Version       int64         `json:"version"`
}

func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// HoldExpired reports whether an unconfirmed hold is past its deadline at now.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusCreated && now.After(b.ExpiresAt)
}

// BookingRequest is the input of a new reservation.
type BookingRequest struct {
	RoomID     int64
	Range      DateRange
	GuestCount int
}

// Transition describes a guarded status change applied by the store.
type Transition struct {
	From          BookingStatus
	To            BookingStatus
	PaymentStatus *PaymentStatus
	CancelledBy   *int64
	At            time.Time
}
