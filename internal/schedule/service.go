package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
)

// Scheduler is the availability resolver and booking commit protocol for the
// clinic's single practitioner.
type Scheduler struct {
	store  Store
	locker redisclient.Locker
	cal    Calendar
}

func NewScheduler(store Store, locker redisclient.Locker, cal Calendar) *Scheduler {
	return &Scheduler{
		store:  store,
		locker: locker,
		cal:    cal,
	}
}

// GetAvailability returns the bookable start instants for a service on a
// civil date, ascending. A day without business hours yields an empty list;
// an unknown or inactive service is an error.
//
// The result is advisory only: it is computed without locks and can go stale
// the moment another client books. CommitBooking re-checks under mutual
// exclusion, which is why this read path never needs to.
func (s *Scheduler) GetAvailability(ctx context.Context, serviceID uuid.UUID, date CivilDate) ([]time.Time, error) {
	svc, err := s.store.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.Active {
		return nil, ErrUnknownService
	}

	hours, err := s.store.GetBusinessHours(ctx, s.cal.WeekdayIndex(date))
	if err != nil {
		if errors.Is(err, ErrNoBusinessHours) {
			return []time.Time{}, nil
		}
		return nil, fmt.Errorf("load business hours: %w", err)
	}

	open := s.cal.At(date, hours.Open)
	close := s.cal.At(date, hours.Close)

	candidates, err := CandidateStarts(open, close, svc.Duration(), svc.Buffer(), s.cal.Location())
	if err != nil {
		return nil, err
	}

	busy, err := s.loadBusy(ctx, open, close)
	if err != nil {
		return nil, err
	}

	occupancy := svc.Occupancy()
	free := make([]time.Time, 0, len(candidates))
	for _, start := range candidates {
		occupied := Interval{Start: start, End: start.Add(occupancy)}
		if !overlapsAny(occupied, busy) {
			free = append(free, start)
		}
	}

	return free, nil
}

// CommitBooking validates a client-chosen start instant and atomically
// persists a confirmed booking if the slot is still free.
//
// Validation fails fast in order: unknown/inactive service, outside business
// hours for the service's occupancy, start off the 15-minute grid. The
// conflict check and insert then run inside one store transaction while the
// clinic-day lock is held, so no interleaving commit can double book. A lost
// race surfaces as ErrSlotConflict, the expected outcome of two clients
// choosing the same slot, not a failure of the engine.
func (s *Scheduler) CommitBooking(ctx context.Context, serviceID uuid.UUID, start time.Time, client ClientDetails) (*Booking, error) {
	svc, err := s.store.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.Active {
		return nil, ErrUnknownService
	}

	date := s.cal.DateOf(start)
	end := start.Add(svc.Occupancy())

	hours, err := s.store.GetBusinessHours(ctx, s.cal.WeekdayIndex(date))
	if err != nil {
		if errors.Is(err, ErrNoBusinessHours) {
			return nil, ErrOutsideBusinessHours
		}
		return nil, fmt.Errorf("load business hours: %w", err)
	}

	open := s.cal.At(date, hours.Open)
	close := s.cal.At(date, hours.Close)
	if start.Before(open) || end.After(close) {
		return nil, ErrOutsideBusinessHours
	}

	if !s.cal.RoundUp15(start).Equal(start) {
		return nil, ErrMisalignedSlot
	}

	var created *Booking

	err = s.locker.WithDayLock(ctx, date.String(), func(lockCtx context.Context) error {
		b := Booking{
			ID:          uuid.New(),
			ServiceID:   svc.ID,
			ClientName:  client.Name,
			ClientEmail: client.Email,
			ClientPhone: client.Phone,
			StartTime:   start.UTC(),
			EndTime:     end.UTC(),
			Status:      StatusConfirmed,
			CancelToken: uuid.NewString(),
		}

		got, err := s.store.CreateConfirmedBooking(lockCtx, b)
		if err != nil {
			return err
		}

		created = got
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", created.ID.String()).
		Str("service_id", svc.ID.String()).
		Time("start", created.StartTime).
		Time("end", created.EndTime).
		Msg("booking confirmed")

	return created, nil
}

// GetBooking loads a booking by ID.
func (s *Scheduler) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.store.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// CancelBooking moves a confirmed booking to cancelled, guarded by the
// client-held token. Cancelling twice returns the cancelled booking
// unchanged; nothing can resurrect it or alter its timestamps.
func (s *Scheduler) CancelBooking(ctx context.Context, id uuid.UUID, token string) (*Booking, error) {
	b, err := s.store.CancelBooking(ctx, id, token)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Time("start", b.StartTime).
		Msg("booking cancelled")

	return b, nil
}

func (s *Scheduler) loadBusy(ctx context.Context, from, to time.Time) ([]Interval, error) {
	bookings, err := s.store.ListConfirmedBookings(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	blackouts, err := s.store.ListBlackouts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blackouts: %w", err)
	}

	busy := make([]Interval, 0, len(bookings)+len(blackouts))
	for _, b := range bookings {
		busy = append(busy, b.Interval())
	}
	for _, bp := range blackouts {
		busy = append(busy, bp.Interval())
	}

	return busy, nil
}
