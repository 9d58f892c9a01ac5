package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

func getAvailabilityHandler(s *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		date, err := schedule.ParseCivilDate(dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be a real YYYY-MM-DD date")
			return
		}

		slots, err := s.GetAvailability(r.Context(), serviceID, date)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			ServiceID: serviceID,
			Date:      date.String(),
			Slots:     slots,
		})
	}
}

func createBookingHandler(s *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		if req.ClientName == "" || req.ClientEmail == "" {
			writeError(w, http.StatusBadRequest, "missing_client_details", "client_name and client_email are required")
			return
		}

		booking, err := s.CommitBooking(r.Context(), serviceID, start, schedule.ClientDetails{
			Name:  req.ClientName,
			Email: req.ClientEmail,
			Phone: req.ClientPhone,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		// The cancel token is only ever revealed here, at creation.
		writeJSON(w, http.StatusCreated, BookingResponse{
			ID:          booking.ID,
			ServiceID:   booking.ServiceID,
			StartTime:   booking.StartTime,
			EndTime:     booking.EndTime,
			Status:      string(booking.Status),
			CancelToken: booking.CancelToken,
		})
	}
}

func getBookingHandler(s *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		booking, err := s.GetBooking(r.Context(), id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{
			ID:        booking.ID,
			ServiceID: booking.ServiceID,
			StartTime: booking.StartTime,
			EndTime:   booking.EndTime,
			Status:    string(booking.Status),
		})
	}
}

func cancelBookingHandler(s *schedule.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		var req CancelBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.CancelToken == "" {
			writeError(w, http.StatusBadRequest, "missing_cancel_token", "cancel_token is required")
			return
		}

		booking, err := s.CancelBooking(r.Context(), id, req.CancelToken)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{
			ID:        booking.ID,
			ServiceID: booking.ServiceID,
			StartTime: booking.StartTime,
			EndTime:   booking.EndTime,
			Status:    string(booking.Status),
		})
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrUnknownService):
		writeError(w, http.StatusNotFound, "unknown_service", "service does not exist or is not bookable")
	case errors.Is(err, schedule.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", "booking does not exist")
	case errors.Is(err, schedule.ErrOutsideBusinessHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_business_hours", "chosen time is outside the clinic's opening hours")
	case errors.Is(err, schedule.ErrMisalignedSlot):
		writeError(w, http.StatusUnprocessableEntity, "misaligned_slot", "chosen time is not on the 15-minute booking grid")
	case errors.Is(err, schedule.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_unavailable", "this time is no longer available, please pick another")
	case errors.Is(err, schedule.ErrInvalidCancelToken):
		writeError(w, http.StatusForbidden, "invalid_cancel_token", "cancellation token does not match")
	case errors.Is(err, schedule.ErrInvalidCalendarInput), errors.Is(err, schedule.ErrInvalidWindow):
		writeError(w, http.StatusInternalServerError, "internal_error", "scheduling configuration error")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
