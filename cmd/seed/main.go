package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	tz := os.Getenv("CLINIC_TIMEZONE")
	if tz == "" {
		tz = "Europe/London"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("load timezone %q: %v", tz, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	serviceIDs, err := seedServices(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedBusinessHours(context.Background(), pool); err != nil {
		log.Fatalf("seed business hours: %v", err)
	}
	if err := seedBlackouts(context.Background(), pool, loc); err != nil {
		log.Fatalf("seed blackouts: %v", err)
	}
	if err := seedBookings(context.Background(), pool, loc, serviceIDs); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	services := []struct {
		name        string
		durationMin int
		bufferMin   int
		active      bool
	}{
		{"Initial Consultation", 45, 15, true},
		{"Follow-up", 30, 15, true},
		{"Physiotherapy Session", 60, 15, true},
		{"Quick Check", 15, 0, true},
		{"Legacy Massage", 30, 0, false},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(services))
	for _, s := range services {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, duration_min, buffer_min, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, s.name, s.durationMin, s.bufferMin, s.active)
		if err != nil {
			return nil, err
		}
		if s.active {
			ids = append(ids, id)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("services seeded")
	return ids, nil
}

func seedBusinessHours(ctx context.Context, pool *pgxpool.Pool) error {
	// Weekday numbering: 0=Sunday..6=Saturday. Sunday and Monday closed.
	hours := []struct {
		weekday     int
		open, close string
	}{
		{2, "09:00", "17:00"},
		{3, "09:00", "17:00"},
		{4, "10:00", "18:00"},
		{5, "09:00", "17:00"},
		{6, "10:00", "14:00"},
	}

	log.Printf("seeding business hours for %d weekdays", len(hours))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range hours {
		_, err := tx.Exec(ctx, `
			INSERT INTO business_hours (weekday, open_time, close_time)
			VALUES ($1, $2, $3)
			ON CONFLICT (weekday) DO UPDATE
			SET open_time = EXCLUDED.open_time, close_time = EXCLUDED.close_time
		`, h.weekday, h.open, h.close)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedBlackouts(ctx context.Context, pool *pgxpool.Pool, loc *time.Location) error {
	// A lunch break tomorrow, clinic time.
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 12, 0, 0, 0, loc)
	end := start.Add(30 * time.Minute)

	_, err := pool.Exec(ctx, `
		INSERT INTO blackout_periods (id, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, uuid.New(), start.UTC(), end.UTC(), "lunch break")
	if err != nil {
		return err
	}

	log.Println("blackouts seeded")
	return nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, loc *time.Location, serviceIDs []uuid.UUID) error {
	if len(serviceIDs) == 0 {
		return nil
	}

	// A few hand-placed, non-overlapping bookings tomorrow morning so demo
	// availability has gaps. Occupancy is kept at 45 minutes with starts an
	// hour apart, so the no-overlap invariant holds by construction.
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	starts := []time.Time{
		time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, loc),
		time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, loc),
		time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 11, 0, 0, 0, loc),
	}

	log.Printf("seeding %d bookings", len(starts))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, start := range starts {
		svcID := serviceIDs[i%len(serviceIDs)]
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings
				(id, service_id, client_name, client_email, client_phone,
				 start_time, end_time, status, cancel_token, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'confirmed', $8, now(), now())
		`, uuid.New(), svcID, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(),
			start.UTC(), start.Add(45*time.Minute).UTC(), uuid.NewString())
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("bookings seeded")
	return nil
}
