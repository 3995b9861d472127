package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"
	"stayhub/internal/validation"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type createBookingRequest struct {
	RoomID     int64  `json:"room_id" validate:"required,gt=0"`
	CheckIn    string `json:"check_in" validate:"required,date"`
	CheckOut   string `json:"check_out" validate:"required,date"`
	GuestCount int    `json:"guest_count" validate:"required,min=1,max=100"`
}

type rangeRequest struct {
	CheckIn  string `json:"check_in" validate:"required,date"`
	CheckOut string `json:"check_out" validate:"required,date"`
}

type priceRequest struct {
	CheckIn  string `json:"check_in" validate:"required,date"`
	CheckOut string `json:"check_out" validate:"required,date"`
	Price    *int64 `json:"price"`
}

type bookingResponse struct {
	ID            int64                `json:"id"`
	BookingNumber string               `json:"booking_number"`
	RoomID        int64                `json:"room_id"`
	GuestID       int64                `json:"guest_id"`
	GuestCount    int                  `json:"guest_count"`
	CheckIn       string               `json:"check_in"`
	CheckOut      string               `json:"check_out"`
	Nights        int                  `json:"nights"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PricePerNight int64                `json:"price_per_night"`
	TotalAmount   int64                `json:"total_amount"`
	Currency      models.Currency      `json:"currency"`
	CancelledBy   *int64               `json:"cancelled_by,omitempty"`
	ExpiresAt     time.Time            `json:"expires_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func newBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		RoomID:        b.RoomID,
		GuestID:       b.GuestID,
		GuestCount:    b.GuestCnt,
		CheckIn:       models.FormatDate(b.CheckIn),
		CheckOut:      models.FormatDate(b.CheckOut),
		Nights:        b.Range().Nights(),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		PricePerNight: b.PricePerNight,
		TotalAmount:   b.TotalAmount,
		Currency:      b.Currency,
		CancelledBy:   b.CancelledBy,
		ExpiresAt:     b.ExpiresAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func newBookingList(bookings []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingResponse(b))
	}
	return out
}

type calendarDayResponse struct {
	Date        string `json:"date"`
	Price       *int64 `json:"price,omitempty"`
	IsAvailable bool   `json:"is_available"`
	IsBlocked   bool   `json:"is_blocked"`
	BookingID   *int64 `json:"booking_id,omitempty"`
	Seeded      bool   `json:"seeded"`
}

func newCalendarResponse(days []models.CalendarDay) []calendarDayResponse {
	out := make([]calendarDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, calendarDayResponse{
			Date:        models.FormatDate(d.Date),
			Price:       d.Price,
			IsAvailable: d.IsAvailable,
			IsBlocked:   d.IsBlocked,
			BookingID:   d.BookingID,
			Seeded:      d.Seeded,
		})
	}
	return out
}

type nightPriceResponse struct {
	Date     string `json:"date"`
	Price    int64  `json:"price"`
	Weekend  bool   `json:"weekend"`
	Override bool   `json:"override"`
}

type quoteResponse struct {
	RoomID        int64                `json:"room_id"`
	CheckIn       string               `json:"check_in"`
	CheckOut      string               `json:"check_out"`
	Nights        []nightPriceResponse `json:"nights"`
	Subtotal      int64                `json:"subtotal"`
	CleaningFee   int64                `json:"cleaning_fee"`
	Total         int64                `json:"total"`
	PricePerNight int64                `json:"price_per_night"`
	Currency      models.Currency      `json:"currency"`
}

func newQuoteResponse(q *models.Quote) quoteResponse {
	nights := make([]nightPriceResponse, 0, len(q.Nights))
	for _, n := range q.Nights {
		nights = append(nights, nightPriceResponse{
			Date:     models.FormatDate(n.Date),
			Price:    n.Price,
			Weekend:  n.Weekend,
			Override: n.Override,
		})
	}
	return quoteResponse{
		RoomID:        q.RoomID,
		CheckIn:       models.FormatDate(q.CheckIn),
		CheckOut:      models.FormatDate(q.CheckOut),
		Nights:        nights,
		Subtotal:      q.Subtotal,
		CleaningFee:   q.CleaningFee,
		Total:         q.Total,
		PricePerNight: q.PricePerNight,
		Currency:      q.Currency,
	}
}

type searchResponse struct {
	Rooms    []*models.Room `json:"rooms"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.Validation("invalid JSON body", map[string]string{"body": err.Error()})
	}
	return nil
}

// decodeBody decodes a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}

func parseRange(checkIn, checkOut string) (models.DateRange, error) {
	in, err := models.ParseDate(checkIn)
	if err != nil {
		return models.DateRange{}, domain.FieldError("check_in", err.Error())
	}
	out, err := models.ParseDate(checkOut)
	if err != nil {
		return models.DateRange{}, domain.FieldError("check_out", err.Error())
	}
	return models.DateRange{CheckIn: in, CheckOut: out}, nil
}

// queryRange reads check_in and check_out from the query string. Both are
// required unless optional is set, in which case both must be absent or
// present together.
func queryRange(r *http.Request, optional bool) (*models.DateRange, error) {
	q := r.URL.Query()
	in, out := q.Get("check_in"), q.Get("check_out")
	if in == "" && out == "" && optional {
		return nil, nil
	}
	if in == "" {
		return nil, domain.FieldError("check_in", "check_in is required")
	}
	if out == "" {
		return nil, domain.FieldError("check_out", "check_out is required")
	}
	dr, err := parseRange(in, out)
	if err != nil {
		return nil, err
	}
	return &dr, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.FieldError("id", "id must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, domain.FieldError(name, name+" must be a non-negative integer")
	}
	return v, nil
}
