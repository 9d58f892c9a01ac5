package schedule

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Service is a bookable treatment. Buffer minutes are appended after the
// duration before the next slot may start; duration+buffer together form the
// occupancy length used for slot generation and conflict checks.
type Service struct {
	ID          uuid.UUID
	Name        string
	DurationMin int
	BufferMin   int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}

func (s Service) Buffer() time.Duration {
	return time.Duration(s.BufferMin) * time.Minute
}

func (s Service) Occupancy() time.Duration {
	return s.Duration() + s.Buffer()
}

// BusinessHours is the clinic's open window for one weekday (0=Sunday..
// 6=Saturday) in clinic-local civil time. At most one row per weekday;
// absence means closed.
type BusinessHours struct {
	Weekday int
	Open    TimeOfDay
	Close   TimeOfDay
}

// BlackoutPeriod is clinic-wide unavailability (holiday, break). Blackouts
// are never edited in place; admins delete and recreate.
type BlackoutPeriod struct {
	ID        uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Reason    *string
	CreatedAt time.Time
}

func (b BlackoutPeriod) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// ClientDetails is the contact information captured at booking time.
type ClientDetails struct {
	Name  string
	Email string
	Phone *string
}

// Booking is a committed appointment. EndTime is denormalized as
// StartTime + service occupancy so overlap queries never need a join.
// CancelToken is an opaque client-held secret for self-service cancellation.
//
// Invariant: the [StartTime, EndTime) intervals of any two confirmed
// bookings never overlap. Cancelled bookings are tombstones and take no part
// in conflict checks.
type Booking struct {
	ID          uuid.UUID
	ServiceID   uuid.UUID
	ClientName  string
	ClientEmail string
	ClientPhone *string
	StartTime   time.Time
	EndTime     time.Time
	Status      BookingStatus
	CancelToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}
