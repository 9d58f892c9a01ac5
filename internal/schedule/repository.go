package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownService       = errors.New("unknown or inactive service")
	ErrNoBusinessHours      = errors.New("no business hours for weekday")
	ErrOutsideBusinessHours = errors.New("start falls outside business hours")
	ErrMisalignedSlot       = errors.New("start is not aligned to the booking grid")
	ErrSlotConflict         = errors.New("slot no longer available")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidCancelToken   = errors.New("cancellation token does not match")
)

// Store contains all persistence the scheduler needs.
type Store interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)

	// GetBusinessHours returns ErrNoBusinessHours for a weekday the clinic
	// is closed on.
	GetBusinessHours(ctx context.Context, weekday int) (*BusinessHours, error)

	// Bounded range loads: rows whose [start,end) could intersect [from,to).
	ListConfirmedBookings(ctx context.Context, from, to time.Time) ([]Booking, error)
	ListBlackouts(ctx context.Context, from, to time.Time) ([]BlackoutPeriod, error)

	// CreateConfirmedBooking atomically re-checks the booking's interval
	// against confirmed bookings and blackouts and inserts it, all in one
	// transaction. Returns ErrSlotConflict if anything overlaps.
	CreateConfirmedBooking(ctx context.Context, b Booking) (*Booking, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CancelBooking performs the only permitted mutation,
	// confirmed -> cancelled, guarded by the cancellation token. Cancelling
	// an already-cancelled booking is a no-op returning the existing row.
	CancelBooking(ctx context.Context, id uuid.UUID, token string) (*Booking, error)
}
