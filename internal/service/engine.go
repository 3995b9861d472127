package service

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/domain"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/pricing"

	"github.com/rs/zerolog"
)

// SweepLockKey is the lock shared by replicas running the expiry sweep.
const SweepLockKey = "stayhub:sweep:expired-holds"

// Engine is the entry point for reservations: it admits and transitions
// bookings, prices stays, searches rooms and expires stale holds.
type Engine struct {
	store    domain.Store
	bookings *BookingService
	resolver *pricing.Resolver
	locker   domain.Locker
	cfg      config.BookingConfig
	logger   *zerolog.Logger
}

func NewEngine(store domain.Store, bookings *BookingService, locker domain.Locker, cfg config.BookingConfig, logger *zerolog.Logger) *Engine {
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = models.DefaultSweepBatchSize
	}
	if cfg.SweepLockTTL <= 0 {
		cfg.SweepLockTTL = 5 * time.Minute
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = models.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = models.MaxPageSize
	}
	return &Engine{
		store:    store,
		bookings: bookings,
		resolver: pricing.NewResolver(store),
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequestBooking places a hold. Overlapping requests for the same nights
// admit exactly one; the others fail with ErrDatesUnavailable.
func (e *Engine) RequestBooking(ctx context.Context, p models.Principal, req models.BookingRequest) (*models.Booking, error) {
	b, err := e.bookings.Create(ctx, p, req)
	if err != nil {
		metrics.IncBookingRequest(string(domain.KindOf(err)))
		return nil, err
	}
	metrics.IncBookingRequest("created")
	return b, nil
}

func (e *Engine) ConfirmBooking(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return e.bookings.Confirm(ctx, p, id)
}

func (e *Engine) CancelBooking(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return e.bookings.Cancel(ctx, p, id)
}

func (e *Engine) RejectBooking(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return e.bookings.Reject(ctx, p, id)
}

func (e *Engine) GetBooking(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	return e.bookings.Get(ctx, p, id)
}

func (e *Engine) ListMyBookings(ctx context.Context, p models.Principal) ([]*models.Booking, error) {
	return e.bookings.ListForGuest(ctx, p)
}

// QuoteRoom prices a stay without reserving anything.
func (e *Engine) QuoteRoom(ctx context.Context, roomID int64, r models.DateRange) (*models.Quote, error) {
	return e.resolver.QuoteRoom(ctx, roomID, r)
}

// SearchAvailableRooms lists active rooms matching f. When r is set only rooms
// with every night of r seeded and free, and whose stay limits admit r, are
// returned. The page is normalized and returned alongside the rooms.
func (e *Engine) SearchAvailableRooms(ctx context.Context, f models.RoomFilter, r *models.DateRange, page models.Page) ([]*models.Room, models.Page, error) {
	page = page.Normalize(e.cfg.DefaultPageSize, e.cfg.MaxPageSize)

	fields := map[string]string{}
	if f.Guests < 0 {
		fields["guests"] = "guests must not be negative"
	}
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		fields["min_price"] = "prices must not be negative"
	} else if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		fields["max_price"] = "max_price must not be below min_price"
	}
	if r != nil {
		if !r.Valid() {
			fields["check_out"] = "check_out must be after check_in"
		} else if r.Nights() > models.MaxRangeNights {
			fields["check_out"] = fmt.Sprintf("range cannot exceed %d nights", models.MaxRangeNights)
		}
	}
	if len(fields) > 0 {
		return nil, page, domain.Validation("invalid search", fields)
	}

	rooms, err := e.store.SearchRooms(ctx, f, r, page)
	if err != nil {
		return nil, page, err
	}
	return rooms, page, nil
}

// SweepExpiredHolds expires every unconfirmed hold whose deadline passed
// before now and returns how many it expired. Each booking is expired in its
// own transaction; holds confirmed meanwhile are skipped. When another
// replica holds the sweep lock the call does nothing.
func (e *Engine) SweepExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	if e.locker != nil {
		token, ok, err := e.locker.TryLock(ctx, SweepLockKey, e.cfg.SweepLockTTL)
		if err != nil {
			metrics.IncSweep("error")
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			metrics.IncSweep("skipped")
			e.logger.Debug().Msg("sweep lock held elsewhere, skipping")
			return 0, nil
		}
		defer func() {
			if err := e.locker.Unlock(context.WithoutCancel(ctx), SweepLockKey, token); err != nil {
				e.logger.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	total, err := e.sweep(ctx, now)
	metrics.AddHoldsExpired(total)
	if err != nil {
		metrics.IncSweep("error")
		return total, err
	}
	metrics.IncSweep("ok")
	if total > 0 {
		e.logger.Info().Int("expired", total).Msg("expired stale holds")
	}
	return total, nil
}

func (e *Engine) sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		holds, err := e.store.ListStaleHolds(ctx, now, e.cfg.SweepBatchSize)
		if err != nil {
			return total, err
		}

		expired := 0
		for _, h := range holds {
			_, ok, err := e.bookings.ExpireIfStale(ctx, h.ID, now)
			if err != nil {
				e.logger.Error().Err(err).Int64("booking_id", h.ID).Msg("failed to expire hold")
				continue
			}
			if ok {
				expired++
			}
		}
		total += expired

		// a batch that expired nothing would be listed again
		if len(holds) < e.cfg.SweepBatchSize || expired == 0 {
			return total, nil
		}
	}
}
