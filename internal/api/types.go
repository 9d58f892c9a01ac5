package api

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityResponse struct {
	ServiceID uuid.UUID   `json:"service_id"`
	Date      string      `json:"date"`
	Slots     []time.Time `json:"slots"`
}

type CreateBookingRequest struct {
	ServiceID   string  `json:"service_id"`
	StartTime   string  `json:"start_time"`
	ClientName  string  `json:"client_name"`
	ClientEmail string  `json:"client_email"`
	ClientPhone *string `json:"client_phone,omitempty"`
}

type CancelBookingRequest struct {
	CancelToken string `json:"cancel_token"`
}

type BookingResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	CancelToken string    `json:"cancel_token,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
