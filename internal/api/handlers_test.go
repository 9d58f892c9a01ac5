package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

// memStore is a minimal in-memory schedule.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	services map[uuid.UUID]schedule.Service
	hours    map[int]schedule.BusinessHours
	bookings map[uuid.UUID]schedule.Booking
}

func (m *memStore) GetServiceByID(ctx context.Context, id uuid.UUID) (*schedule.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, schedule.ErrUnknownService
	}
	return &svc, nil
}

func (m *memStore) GetBusinessHours(ctx context.Context, weekday int) (*schedule.BusinessHours, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hours[weekday]
	if !ok {
		return nil, schedule.ErrNoBusinessHours
	}
	return &h, nil
}

func (m *memStore) ListConfirmedBookings(ctx context.Context, from, to time.Time) ([]schedule.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := schedule.Interval{Start: from, End: to}
	var result []schedule.Booking
	for _, b := range m.bookings {
		if b.Status == schedule.StatusConfirmed && b.Interval().Overlaps(window) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *memStore) ListBlackouts(ctx context.Context, from, to time.Time) ([]schedule.BlackoutPeriod, error) {
	return nil, nil
}

func (m *memStore) CreateConfirmedBooking(ctx context.Context, b schedule.Booking) (*schedule.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.Status == schedule.StatusConfirmed && b.Interval().Overlaps(existing.Interval()) {
			return nil, schedule.ErrSlotConflict
		}
	}
	m.bookings[b.ID] = b
	return &b, nil
}

func (m *memStore) GetBookingByID(ctx context.Context, id uuid.UUID) (*schedule.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, schedule.ErrBookingNotFound
	}
	return &b, nil
}

func (m *memStore) CancelBooking(ctx context.Context, id uuid.UUID, token string) (*schedule.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, schedule.ErrBookingNotFound
	}
	if b.CancelToken != token {
		return nil, schedule.ErrInvalidCancelToken
	}
	b.Status = schedule.StatusCancelled
	m.bookings[id] = b
	return &b, nil
}

type noopLocker struct{}

func (noopLocker) WithDayLock(ctx context.Context, day string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(t *testing.T) (http.Handler, uuid.UUID) {
	t.Helper()

	cal, err := schedule.NewCalendar("Europe/London")
	require.NoError(t, err)

	svcID := uuid.New()
	store := &memStore{
		services: map[uuid.UUID]schedule.Service{
			svcID: {ID: svcID, Name: "Consultation", DurationMin: 30, BufferMin: 15, Active: true},
		},
		hours: map[int]schedule.BusinessHours{
			// Monday 10:00-18:00
			1: {Weekday: 1, Open: schedule.TimeOfDay{Hour: 10}, Close: schedule.TimeOfDay{Hour: 18}},
		},
		bookings: make(map[uuid.UUID]schedule.Booking),
	}

	scheduler := schedule.NewScheduler(store, noopLocker{}, cal)

	r := chi.NewRouter()
	r.Get("/availability", getAvailabilityHandler(scheduler))
	r.Post("/bookings", createBookingHandler(scheduler))
	r.Get("/bookings/{id}", getBookingHandler(scheduler))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(scheduler))

	return r, svcID
}

func TestGetAvailabilityHandler(t *testing.T) {
	router, svcID := newTestRouter(t)

	// 2026-01-05 is a Monday.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/availability?service_id="+svcID.String()+"&date=2026-01-05", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, svcID, resp.ServiceID)
	assert.Len(t, resp.Slots, 30)
}

func TestGetAvailabilityHandler_BadInput(t *testing.T) {
	router, svcID := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/availability?service_id=nope&date=2026-01-05", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/availability?service_id="+svcID.String()+"&date=2026-02-30", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/availability?service_id="+uuid.NewString()+"&date=2026-01-05", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingHandler(t *testing.T) {
	router, svcID := newTestRouter(t)

	req := CreateBookingRequest{
		ServiceID:   svcID.String(),
		StartTime:   "2026-01-05T10:00:00Z", // London is on UTC in January
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}

	rec := postJSON(router, "/bookings", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.NotEmpty(t, resp.CancelToken)
	assert.True(t, resp.EndTime.Equal(resp.StartTime.Add(45*time.Minute)))

	// The same slot a second time is a conflict.
	rec = postJSON(router, "/bookings", req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "slot_unavailable", errResp.Error)
}

func TestCreateBookingHandler_Rejections(t *testing.T) {
	router, svcID := newTestRouter(t)

	cases := []struct {
		name string
		req  CreateBookingRequest
		want int
	}{
		{
			"unknown service",
			CreateBookingRequest{ServiceID: uuid.NewString(), StartTime: "2026-01-05T10:00:00Z",
				ClientName: "A", ClientEmail: "a@example.com"},
			http.StatusNotFound,
		},
		{
			"outside business hours",
			CreateBookingRequest{ServiceID: svcID.String(), StartTime: "2026-01-05T08:00:00Z",
				ClientName: "A", ClientEmail: "a@example.com"},
			http.StatusUnprocessableEntity,
		},
		{
			"misaligned start",
			CreateBookingRequest{ServiceID: svcID.String(), StartTime: "2026-01-05T10:07:00Z",
				ClientName: "A", ClientEmail: "a@example.com"},
			http.StatusUnprocessableEntity,
		},
		{
			"missing contact details",
			CreateBookingRequest{ServiceID: svcID.String(), StartTime: "2026-01-05T10:00:00Z"},
			http.StatusBadRequest,
		},
		{
			"bad timestamp",
			CreateBookingRequest{ServiceID: svcID.String(), StartTime: "yesterday",
				ClientName: "A", ClientEmail: "a@example.com"},
			http.StatusBadRequest,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := postJSON(router, "/bookings", c.req)
			assert.Equal(t, c.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCancelBookingHandler(t *testing.T) {
	router, svcID := newTestRouter(t)

	rec := postJSON(router, "/bookings", CreateBookingRequest{
		ServiceID:   svcID.String(),
		StartTime:   "2026-01-05T11:00:00Z",
		ClientName:  "Carol",
		ClientEmail: "carol@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var booking BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))

	cancelPath := fmt.Sprintf("/bookings/%s/cancel", booking.ID)

	rec = postJSON(router, cancelPath, CancelBookingRequest{CancelToken: "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postJSON(router, cancelPath, CancelBookingRequest{CancelToken: booking.CancelToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Empty(t, cancelled.CancelToken, "token must not be echoed after creation")

	rec = postJSON(router, fmt.Sprintf("/bookings/%s/cancel", uuid.NewString()),
		CancelBookingRequest{CancelToken: booking.CancelToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBookingHandler(t *testing.T) {
	router, svcID := newTestRouter(t)

	rec := postJSON(router, "/bookings", CreateBookingRequest{
		ServiceID:   svcID.String(),
		StartTime:   "2026-01-05T12:00:00Z",
		ClientName:  "Dan",
		ClientEmail: "dan@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var booking BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/"+booking.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, booking.ID, got.ID)
	assert.Empty(t, got.CancelToken)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
