package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"stayhub/internal/models"
)

func principal(r *http.Request) models.Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	dr, err := parseRange(body.CheckIn, body.CheckOut)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	b, err := s.engine.RequestBooking(r.Context(), principal(r), models.BookingRequest{
		RoomID:     body.RoomID,
		Range:      dr,
		GuestCount: body.GuestCount,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingResponse(b))
}

func (s *HTTPServer) handleListMyBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListMyBookings(r.Context(), principal(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": newBookingList(list)})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	s.bookingAction(w, r, s.engine.GetBooking)
}

func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	s.bookingAction(w, r, s.engine.ConfirmBooking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	s.bookingAction(w, r, s.engine.CancelBooking)
}

func (s *HTTPServer) handleRejectBooking(w http.ResponseWriter, r *http.Request) {
	s.bookingAction(w, r, s.engine.RejectBooking)
}

type bookingFunc func(ctx context.Context, p models.Principal, id int64) (*models.Booking, error)

func (s *HTTPServer) bookingAction(w http.ResponseWriter, r *http.Request, fn bookingFunc) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	b, err := fn(r.Context(), principal(r), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingResponse(b))
}

func (s *HTTPServer) handleSearchRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dr, err := queryRange(r, true)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var nums [5]int64
	for i, name := range []string{"guests", "min_price", "max_price", "page", "page_size"} {
		if nums[i], err = queryInt(r, name); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	filter := models.RoomFilter{
		Country:  q.Get("country"),
		City:     q.Get("city"),
		Guests:   int(nums[0]),
		MinPrice: nums[1],
		MaxPrice: nums[2],
	}
	rooms, page, err := s.engine.SearchAvailableRooms(r.Context(), filter, dr, models.Page{Number: int(nums[3]), Size: int(nums[4])})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Rooms: rooms, Page: page.Number, PageSize: page.Size})
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var in models.RoomCreate
	// defaults are applied before validation by the service
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	created, err := s.rooms.Create(r.Context(), principal(r), &in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	room, err := s.rooms.Get(r.Context(), principal(r), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var u models.RoomUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	room, err := s.rooms.Update(r.Context(), principal(r), id, u)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	dr, err := queryRange(r, false)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if _, err := s.rooms.Get(r.Context(), principal(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	q, err := s.engine.QuoteRoom(r.Context(), id, *dr)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(q))
}

func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	dr, err := queryRange(r, false)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	days, err := s.rooms.Calendar(r.Context(), principal(r), id, *dr)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarResponse(days))
}

// calendarBody reads the room id and the {check_in, check_out} body shared by
// the calendar management routes.
func (s *HTTPServer) calendarBody(w http.ResponseWriter, r *http.Request) (int64, models.DateRange, bool) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return 0, models.DateRange{}, false
	}
	var body rangeRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return 0, models.DateRange{}, false
	}
	dr, err := parseRange(body.CheckIn, body.CheckOut)
	if err != nil {
		s.writeDomainError(w, r, err)
		return 0, models.DateRange{}, false
	}
	return id, dr, true
}

func (s *HTTPServer) handleSeedCalendar(w http.ResponseWriter, r *http.Request) {
	id, dr, ok := s.calendarBody(w, r)
	if !ok {
		return
	}
	n, err := s.rooms.SeedCalendar(r.Context(), principal(r), id, dr)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

func (s *HTTPServer) handleBlock(w http.ResponseWriter, r *http.Request) {
	id, dr, ok := s.calendarBody(w, r)
	if !ok {
		return
	}
	if err := s.rooms.Block(r.Context(), principal(r), id, dr); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleUnblock(w http.ResponseWriter, r *http.Request) {
	id, dr, ok := s.calendarBody(w, r)
	if !ok {
		return
	}
	if err := s.rooms.Unblock(r.Context(), principal(r), id, dr); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var body priceRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	dr, err := parseRange(body.CheckIn, body.CheckOut)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.rooms.SetNightlyPrice(r.Context(), principal(r), id, dr, body.Price); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleRoomBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	list, err := s.rooms.ListBookings(r.Context(), principal(r), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": newBookingList(list)})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// буферизуем, чтобы ошибка не ушла после заголовков
	var buf bytes.Buffer
	if err := s.rooms.ExportBookings(r.Context(), principal(r), id, &buf); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=room_%d_bookings.xlsx", id))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
