package models

import "time"

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyRoom      PropertyType = "room"
	PropertyHotel     PropertyType = "hotel"
)

type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

type RoomStatus string

const (
	RoomStatusActive  RoomStatus = "active"
	RoomStatusHidden  RoomStatus = "hidden"
	RoomStatusBlocked RoomStatus = "blocked"
)

// Room is a bookable listing. Money fields are minor units.
type Room struct {
	ID                int64        `json:"id" db:"id"`
	OwnerID           int64        `json:"owner_id" db:"owner_id"`
	Title             string       `json:"title" db:"title" validate:"required,min=5,max=100"`
	Description       string       `json:"description" db:"description" validate:"required,min=10,max=1000"`
	Country           string       `json:"country" db:"country" validate:"required,min=3,max=100"`
	City              string       `json:"city" db:"city" validate:"required,min=3,max=100"`
	Address           string       `json:"address" db:"address" validate:"required,min=5,max=250"`
	PropertyType      PropertyType `json:"property_type" db:"property_type" validate:"required,property_type"`
	GuestsCnt         int          `json:"guests_cnt" db:"guests_cnt" validate:"min=1,max=100"`
	Bedrooms          int          `json:"bedrooms" db:"bedrooms" validate:"min=1,max=100"`
	Beds              int          `json:"beds" db:"beds" validate:"min=1,max=100"`
	Bathrooms         int          `json:"bathrooms" db:"bathrooms" validate:"min=1,max=100"`
	BasePrice         int64        `json:"base_price" db:"base_price" validate:"min=1,max=10000000000"`
	Currency          Currency     `json:"currency" db:"currency" validate:"required,currency"`
	CleaningFee       int64        `json:"cleaning_fee" db:"cleaning_fee" validate:"min=0,max=10000000000"`
	SecurityDeposit   int64        `json:"security_deposit" db:"security_deposit" validate:"min=0,max=10000000000"`
	WeekendMultiplier float64      `json:"weekend_multiplier" db:"weekend_multiplier" validate:"gte=1,lte=100"`
	MinStay           int          `json:"min_stay" db:"min_stay" validate:"min=1,ltefield=MaxStay"`
	MaxStay           int          `json:"max_stay" db:"max_stay" validate:"min=1,max=366"`
	Status            RoomStatus   `json:"status" db:"status" validate:"required,room_status"`
	IsAvailable       bool         `json:"is_available" db:"is_available"`
	LastBookedAt      *time.Time   `json:"last_booked_at,omitempty" db:"last_booked_at"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// ApplyDefaults fills optional listing fields left at their zero value.
func (r *Room) ApplyDefaults() {
	if r.WeekendMultiplier == 0 {
		r.WeekendMultiplier = 1
	}
	if r.MinStay == 0 {
		r.MinStay = 1
	}
	if r.MaxStay == 0 {
		r.MaxStay = DefaultMaxStay
	}
	if r.Status == "" {
		r.Status = RoomStatusActive
	}
}

// RoomCreate is a new listing. IsAvailable defaults to true when absent.
type RoomCreate struct {
	Room
	IsAvailable *bool `json:"is_available"`
}

// Build returns the listing with defaults applied.
func (c *RoomCreate) Build() *Room {
	r := c.Room
	r.IsAvailable = c.IsAvailable == nil || *c.IsAvailable
	r.ApplyDefaults()
	return &r
}

// Bookable reports whether new reservations are admitted for the room.
func (r *Room) Bookable() bool {
	return r.Status == RoomStatusActive && r.IsAvailable
}

// RoomUpdate is a partial update: nil fields are left untouched.
type RoomUpdate struct {
	Title             *string       `json:"title,omitempty"`
	Description       *string       `json:"description,omitempty"`
	Country           *string       `json:"country,omitempty"`
	City              *string       `json:"city,omitempty"`
	Address           *string       `json:"address,omitempty"`
	PropertyType      *PropertyType `json:"property_type,omitempty"`
	GuestsCnt         *int          `json:"guests_cnt,omitempty"`
	Bedrooms          *int          `json:"bedrooms,omitempty"`
	Beds              *int          `json:"beds,omitempty"`
	Bathrooms         *int          `json:"bathrooms,omitempty"`
	BasePrice         *int64        `json:"base_price,omitempty"`
	Currency          *Currency     `json:"currency,omitempty"`
	CleaningFee       *int64        `json:"cleaning_fee,omitempty"`
	SecurityDeposit   *int64        `json:"security_deposit,omitempty"`
	WeekendMultiplier *float64      `json:"weekend_multiplier,omitempty"`
	MinStay           *int          `json:"min_stay,omitempty"`
	MaxStay           *int          `json:"max_stay,omitempty"`
	Status            *RoomStatus   `json:"status,omitempty"`
	IsAvailable       *bool         `json:"is_available,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u RoomUpdate) Empty() bool {
	return u == RoomUpdate{}
}

// Apply copies every set field onto r.
func (u RoomUpdate) Apply(r *Room) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Country != nil {
		r.Country = *u.Country
	}
	if u.City != nil {
		r.City = *u.City
	}
	if u.Address != nil {
		r.Address = *u.Address
	}
	if u.PropertyType != nil {
		r.PropertyType = *u.PropertyType
	}
	if u.GuestsCnt != nil {
		r.GuestsCnt = *u.GuestsCnt
	}
	if u.Bedrooms != nil {
		r.Bedrooms = *u.Bedrooms
	}
	if u.Beds != nil {
		r.Beds = *u.Beds
	}
	if u.Bathrooms != nil {
		r.Bathrooms = *u.Bathrooms
	}
	if u.BasePrice != nil {
		r.BasePrice = *u.BasePrice
	}
	if u.Currency != nil {
		r.Currency = *u.Currency
	}
	if u.CleaningFee != nil {
		r.CleaningFee = *u.CleaningFee
	}
	if u.SecurityDeposit != nil {
		r.SecurityDeposit = *u.SecurityDeposit
	}
	if u.WeekendMultiplier != nil {
		r.WeekendMultiplier = *u.WeekendMultiplier
	}
	if u.MinStay != nil {
		r.MinStay = *u.MinStay
	}
	if u.MaxStay != nil {
		r.MaxStay = *u.MaxStay
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.IsAvailable != nil {
		r.IsAvailable = *u.IsAvailable
	}
}

// RoomFilter narrows SearchAvailableRooms. Zero values mean "any".
type RoomFilter struct {
	Country  string
	City     string
	Guests   int
	MinPrice int64
	MaxPrice int64
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into allowed bounds.
func (p Page) Normalize(defaultSize, maxSize int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
