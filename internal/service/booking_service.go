package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/domain"
	"stayhub/internal/events"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle. Every operation runs in one
// store transaction; events are published only after commit.
type BookingService struct {
	store          domain.Store
	eventBus       domain.EventPublisher
	holdTTL        time.Duration
	maxAdvanceDays int
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	holdTTL := cfg.HoldTTL
	if holdTTL <= 0 {
		holdTTL = models.DefaultHoldTTL
	}
	maxAdvanceDays := cfg.MaxAdvanceDays
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	return &BookingService{
		store:          store,
		eventBus:       eventBus,
		holdTTL:        holdTTL,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
		now:            time.Now,
	}
}

func newBookingNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// validateRequest checks the parts of a request that need no stored state.
func (s *BookingService) validateRequest(req models.BookingRequest, now time.Time) error {
	fields := map[string]string{}
	if req.RoomID <= 0 {
		fields["room_id"] = "room_id is required"
	}
	if req.GuestCount < 1 {
		fields["guest_count"] = "at least one guest is required"
	}
	if !req.Range.Valid() {
		fields["check_out"] = "check_out must be after check_in"
	}

	// Проверяем, что дата заезда не в прошлом и не слишком далеко
	today := models.Day(now)
	if req.Range.CheckIn.Before(today) {
		fields["check_in"] = "check_in is in the past"
	} else if req.Range.CheckIn.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		fields["check_in"] = fmt.Sprintf("check_in is more than %d days ahead", s.maxAdvanceDays)
	}

	if len(fields) > 0 {
		return domain.Validation("invalid booking request", fields)
	}
	return nil
}

// Create places a hold on the requested nights. Either the booking is stored
// CREATED with every night reserved, or nothing is written.
func (s *BookingService) Create(ctx context.Context, p models.Principal, req models.BookingRequest) (*models.Booking, error) {
	if !p.CanBook() {
		return nil, domain.Forbidden("role %s cannot book rooms", p.Role)
	}

	now := s.now().UTC()
	if err := s.validateRequest(req, now); err != nil {
		return nil, err
	}

	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx domain.Tx) error {
		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.Bookable() {
			return domain.FieldError("room_id", "room is not accepting bookings")
		}
		if ownsRoom(p, room) {
			return domain.Forbidden("owner cannot book own room %d", room.ID)
		}
		if req.GuestCount > room.GuestsCnt {
			return domain.FieldError("guest_count", fmt.Sprintf("room accepts at most %d guests", room.GuestsCnt))
		}

		if err := pricing.CheckStay(room, req.Range); err != nil {
			return err
		}

		days, err := tx.QueryAvailability(ctx, room.ID, req.Range)
		if err != nil {
			return err
		}
		quote, err := pricing.Compute(room, req.Range, days)
		if err != nil {
			return err
		}
		for _, d := range days {
			if !d.Bookable() {
				return domain.Errorf(domain.KindDatesUnavailable, "room %d is not available on %s", room.ID, models.FormatDate(d.Date))
			}
		}

		booking = &models.Booking{
			BookingNumber: newBookingNumber(),
			RoomID:        room.ID,
			GuestID:       p.UserID,
			GuestCnt:      req.GuestCount,
			CheckIn:       req.Range.CheckIn,
			CheckOut:      req.Range.CheckOut,
			Status:        models.StatusCreated,
			PaymentStatus: models.PaymentPending,
			PricePerNight: quote.PricePerNight,
			TotalAmount:   quote.Total,
			Currency:      room.Currency,
			ExpiresAt:     now.Add(s.holdTTL),
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}

		if err := tx.ReserveRange(ctx, room.ID, req.Range, booking.ID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return &domain.Error{Kind: domain.KindDatesUnavailable, Message: "dates are no longer available", Err: err}
			}
			return err
		}

		return tx.TouchLastBooked(ctx, room.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("booking_number", booking.BookingNumber).
		Int64("room_id", booking.RoomID).
		Str("range", booking.Range().String()).
		Msg("booking hold created")
	s.publishEvent(events.EventBookingCreated, booking, p.UserID)
	return booking, nil
}

type authorizeFunc func(p models.Principal, b *models.Booking, room *models.Room) error

// transition moves a booking to `to` under the room lock. prepare may refuse
// the move or fill the extra columns of the transition.
func (s *BookingService) transition(
	ctx context.Context,
	p models.Principal,
	id int64,
	to models.BookingStatus,
	authorize authorizeFunc,
	prepare func(b *models.Booking, t *models.Transition) error,
) (*models.Booking, error) {
	now := s.now().UTC()

	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		room, err := tx.LockRoom(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if err := authorize(p, b, room); err != nil {
			return err
		}
		if err := checkTransition(b, to); err != nil {
			return err
		}

		t := models.Transition{From: b.Status, To: to, At: now}
		if prepare != nil {
			if err := prepare(b, &t); err != nil {
				return err
			}
		}

		if err := s.apply(ctx, tx, b, t); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("status", string(booking.Status)).
		Int64("by", p.UserID).
		Msg("booking transitioned")
	s.publishEvent(events.EventForStatus(booking.Status), booking, p.UserID)
	return booking, nil
}

func checkTransition(b *models.Booking, to models.BookingStatus) error {
	if b.Status.Terminal() {
		return domain.Errorf(domain.KindAlreadyTerminal, "booking %d is already %s", b.ID, b.Status)
	}
	if !models.CanTransition(b.Status, to) {
		return domain.Errorf(domain.KindInvalidTransition, "booking %d cannot move from %s to %s", b.ID, b.Status, to)
	}
	return nil
}

// apply writes t and releases the nights when the booking stops holding
// them. b is updated in place to the stored state.
func (s *BookingService) apply(ctx context.Context, tx domain.Tx, b *models.Booking, t models.Transition) error {
	if err := tx.TransitionBooking(ctx, b.ID, t); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return &domain.Error{
				Kind:    domain.KindAlreadyTerminal,
				Message: fmt.Sprintf("booking %d was changed concurrently", b.ID),
				Err:     err,
			}
		}
		return err
	}

	if !t.To.Holding() {
		if err := tx.ReleaseRange(ctx, b.RoomID, b.Range(), b.ID); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			s.logger.Warn().Int64("booking_id", b.ID).Msg("booking held no nights on release")
		}
	}

	b.Status = t.To
	if t.PaymentStatus != nil {
		b.PaymentStatus = *t.PaymentStatus
	}
	if t.CancelledBy != nil {
		b.CancelledBy = t.CancelledBy
	}
	b.Version++
	b.UpdatedAt = t.At
	return nil
}

// Confirm accepts a hold that has not expired yet and marks it paid.
func (s *BookingService) Confirm(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return s.transition(ctx, p, id, models.StatusConfirmed, canConfirm, func(b *models.Booking, t *models.Transition) error {
		if b.HoldExpired(t.At) {
			return domain.Errorf(domain.KindHoldExpired, "hold of booking %d expired at %s", b.ID, b.ExpiresAt.Format(time.RFC3339))
		}
		paid := models.PaymentPaid
		t.PaymentStatus = &paid
		return nil
	})
}

// Cancel frees the nights of a pending or confirmed booking.
func (s *BookingService) Cancel(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return s.transition(ctx, p, id, models.StatusCancelled, canViewBooking, func(_ *models.Booking, t *models.Transition) error {
		by := p.UserID
		t.CancelledBy = &by
		return nil
	})
}

// Reject is the owner's refusal of a pending hold.
func (s *BookingService) Reject(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return s.transition(ctx, p, id, models.StatusRejected, canReject, func(b *models.Booking, t *models.Transition) error {
		if b.PaymentStatus == models.PaymentPending {
			failed := models.PaymentFailed
			t.PaymentStatus = &failed
		}
		return nil
	})
}

// ExpireIfStale expires the booking when it is an unconfirmed hold past its
// deadline at now. It reports whether this call expired it; a booking that
// was confirmed or expired by someone else is returned unchanged.
func (s *BookingService) ExpireIfStale(ctx context.Context, id int64, now time.Time) (*models.Booking, bool, error) {
	now = now.UTC()

	var (
		booking *models.Booking
		expired bool
	)
	err := s.store.WithTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		booking = b
		if !b.HoldExpired(now) {
			return nil
		}
		if _, err := tx.LockRoom(ctx, b.RoomID); err != nil {
			return err
		}

		err = s.apply(ctx, tx, b, models.Transition{From: models.StatusCreated, To: models.StatusExpired, At: now})
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil
		}
		if err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if expired {
		s.logger.Info().Int64("booking_id", booking.ID).Msg("booking hold expired")
		s.publishEvent(events.EventBookingExpired, booking, 0)
	}
	return booking, expired, nil
}

// Get returns a booking visible to p.
func (s *BookingService) Get(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	if err := canViewBooking(p, b, room); err != nil {
		return nil, err
	}
	return b, nil
}

// ListForGuest returns the bookings made by p, newest first.
func (s *BookingService) ListForGuest(ctx context.Context, p models.Principal) ([]*models.Booking, error) {
	return s.store.ListBookingsForGuest(ctx, p.UserID)
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, changedBy int64) {
	metrics.IncTransition(string(b.Status))
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishJSON(eventType, events.NewBookingPayload(b, changedBy)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}
