package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.DurationMin,
		&s.BufferMin,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownService
		}
		return nil, err
	}

	return &s, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var phone *string

	err := row.Scan(
		&b.ID,
		&b.ServiceID,
		&b.ClientName,
		&b.ClientEmail,
		&phone,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CancelToken,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.ClientPhone = phone
	return &b, nil
}

func scanBlackout(row pgx.Row) (*BlackoutPeriod, error) {
	var bp BlackoutPeriod
	var reason *string

	err := row.Scan(
		&bp.ID,
		&bp.StartTime,
		&bp.EndTime,
		&reason,
		&bp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	bp.Reason = reason
	return &bp, nil
}

const bookingColumns = `id, service_id, client_name, client_email, client_phone,
		start_time, end_time, status, cancel_token, created_at, updated_at`

// Interface methods

func (s *PgStore) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, duration_min, buffer_min, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (s *PgStore) GetBusinessHours(ctx context.Context, weekday int) (*BusinessHours, error) {
	var openStr, closeStr string

	err := s.pool.QueryRow(ctx, `
		SELECT open_time, close_time
		FROM business_hours
		WHERE weekday = $1
	`, weekday).Scan(&openStr, &closeStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoBusinessHours
		}
		return nil, err
	}

	open, err := ParseTimeOfDay(openStr)
	if err != nil {
		return nil, fmt.Errorf("business_hours weekday %d open_time: %w", weekday, err)
	}
	close, err := ParseTimeOfDay(closeStr)
	if err != nil {
		return nil, fmt.Errorf("business_hours weekday %d close_time: %w", weekday, err)
	}

	return &BusinessHours{Weekday: weekday, Open: open, Close: close}, nil
}

func (s *PgStore) ListConfirmedBookings(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND start_time < $2
		  AND end_time > $1
		ORDER BY start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) ListBlackouts(ctx context.Context, from, to time.Time) ([]BlackoutPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, start_time, end_time, reason, created_at
		FROM blackout_periods
		WHERE start_time < $2
		  AND end_time > $1
		ORDER BY start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlackoutPeriod
	for rows.Next() {
		bp, err := scanBlackout(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *bp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CreateConfirmedBooking re-checks the candidate interval and inserts the
// booking inside one transaction. The caller is expected to hold the
// clinic-day lock; the bookings table additionally carries an exclusion
// constraint on tstzrange(start_time, end_time) for confirmed rows, so an
// overlapping insert that somehow slips past both checks still fails with
// an exclusion violation, which is mapped to ErrSlotConflict.
func (s *PgStore) CreateConfirmedBooking(ctx context.Context, b Booking) (*Booking, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	candidate := b.Interval()

	busy, err := loadBusyTx(ctx, tx, b.StartTime, b.EndTime)
	if err != nil {
		return nil, fmt.Errorf("load conflicting intervals: %w", err)
	}
	if overlapsAny(candidate, busy) {
		return nil, ErrSlotConflict
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, service_id, client_name, client_email, client_phone,
			 start_time, end_time, status, cancel_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'confirmed', $8, now(), now())
		RETURNING `+bookingColumns+`
	`, b.ID, b.ServiceID, b.ClientName, b.ClientEmail, b.ClientPhone,
		b.StartTime, b.EndTime, b.CancelToken)

	created, err := scanBooking(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	return created, nil
}

func loadBusyTx(ctx context.Context, tx pgx.Tx, from, to time.Time) ([]Interval, error) {
	// One query at a time: the tx holds a single connection.
	bookings, err := queryIntervals(ctx, tx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE status = 'confirmed'
		  AND start_time < $2
		  AND end_time > $1
	`, from, to)
	if err != nil {
		return nil, err
	}

	blackouts, err := queryIntervals(ctx, tx, `
		SELECT start_time, end_time
		FROM blackout_periods
		WHERE start_time < $2
		  AND end_time > $1
	`, from, to)
	if err != nil {
		return nil, err
	}

	return append(bookings, blackouts...), nil
}

func queryIntervals(ctx context.Context, tx pgx.Tx, sql string, from, to time.Time) ([]Interval, error) {
	rows, err := tx.Query(ctx, sql, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func (s *PgStore) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (s *PgStore) CancelBooking(ctx context.Context, id uuid.UUID, token string) (*Booking, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND cancel_token = $2
		  AND status = 'confirmed'
		RETURNING `+bookingColumns+`
	`, id, token)

	cancelled, err := scanBooking(row)
	if err == nil {
		return cancelled, nil
	}
	if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}

	// The guarded update matched nothing: missing row, wrong token, or a
	// booking that is already cancelled (idempotent re-cancel).
	existing, err := s.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CancelToken != token {
		return nil, ErrInvalidCancelToken
	}
	return existing, nil
}
