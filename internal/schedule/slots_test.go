package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestCandidateStarts_FullDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatal(err)
	}

	// Monday 10:00-18:00, service duration 30 + buffer 15 (occupancy 45).
	open := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	close := time.Date(2026, 1, 5, 18, 0, 0, 0, loc)

	starts, err := CandidateStarts(open, close, 30*time.Minute, 15*time.Minute, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Starts run 10:00 .. 17:15 inclusive, 15 minutes apart.
	if len(starts) != 30 {
		t.Fatalf("expected 30 candidates, got %d", len(starts))
	}
	if !starts[0].Equal(open) {
		t.Errorf("first candidate = %s, want 10:00", starts[0].Format(time.RFC3339))
	}
	last := time.Date(2026, 1, 5, 17, 15, 0, 0, loc)
	if !starts[len(starts)-1].Equal(last) {
		t.Errorf("last candidate = %s, want 17:15", starts[len(starts)-1].Format(time.RFC3339))
	}

	occupancy := 45 * time.Minute
	for i, s := range starts {
		if s.Add(occupancy).After(close) {
			t.Errorf("candidate %s does not fit before close", s.Format(time.RFC3339))
		}
		if i > 0 {
			if got := s.Sub(starts[i-1]); got != 15*time.Minute {
				t.Errorf("spacing between %d and %d = %s, want 15m", i-1, i, got)
			}
		}
	}
}

func TestCandidateStarts_OpenOffGrid(t *testing.T) {
	loc := time.UTC
	open := time.Date(2026, 1, 5, 10, 7, 0, 0, loc)
	close := time.Date(2026, 1, 5, 12, 0, 0, 0, loc)

	starts, err := CandidateStarts(open, close, 30*time.Minute, 0, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) == 0 {
		t.Fatal("expected candidates")
	}
	if want := time.Date(2026, 1, 5, 10, 15, 0, 0, loc); !starts[0].Equal(want) {
		t.Errorf("first candidate = %s, want 10:15", starts[0].Format(time.RFC3339))
	}
}

func TestCandidateStarts_OccupancyExceedsWindow(t *testing.T) {
	loc := time.UTC
	open := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	close := open.Add(30 * time.Minute)

	starts, err := CandidateStarts(open, close, 30*time.Minute, 15*time.Minute, loc)
	if err != nil {
		t.Fatalf("a too-short window is not an error, got %v", err)
	}
	if len(starts) != 0 {
		t.Fatalf("expected no candidates, got %d", len(starts))
	}
}

func TestCandidateStarts_ExactFit(t *testing.T) {
	loc := time.UTC
	open := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)
	close := open.Add(45 * time.Minute)

	starts, err := CandidateStarts(open, close, 30*time.Minute, 15*time.Minute, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 1 || !starts[0].Equal(open) {
		t.Fatalf("expected exactly the opening slot, got %v", starts)
	}
}

func TestCandidateStarts_InvalidWindow(t *testing.T) {
	loc := time.UTC
	open := time.Date(2026, 1, 5, 10, 0, 0, 0, loc)

	if _, err := CandidateStarts(open, open, 30*time.Minute, 0, loc); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("close == open: expected ErrInvalidWindow, got %v", err)
	}
	if _, err := CandidateStarts(open, open.Add(-time.Hour), 30*time.Minute, 0, loc); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("close < open: expected ErrInvalidWindow, got %v", err)
	}
	if _, err := CandidateStarts(open, open.Add(time.Hour), 0, 0, loc); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("zero duration: expected ErrInvalidWindow, got %v", err)
	}
	if _, err := CandidateStarts(open, open.Add(time.Hour), 30*time.Minute, -time.Minute, loc); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("negative buffer: expected ErrInvalidWindow, got %v", err)
	}
}
