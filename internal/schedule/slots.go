package schedule

import (
	"fmt"
	"time"
)

// CandidateStarts generates the ordered candidate start instants for a
// booking of the given duration plus trailing buffer within the window
// [open, close). Candidates begin at the first 15-minute grid boundary at or
// after open and are spaced exactly 15 minutes apart; every candidate
// satisfies start+duration+buffer <= close.
//
// The function is pure: no I/O, no clock reads. A window too short for even
// one occupancy yields an empty sequence, not an error. A close at or before
// open, a non-positive duration, or a negative buffer is a configuration
// error and fails with ErrInvalidWindow.
func CandidateStarts(open, close time.Time, duration, buffer time.Duration, loc *time.Location) ([]time.Time, error) {
	if !close.After(open) {
		return nil, fmt.Errorf("%w: close %s not after open %s",
			ErrInvalidWindow, close.Format(time.RFC3339), open.Format(time.RFC3339))
	}
	if duration <= 0 || buffer < 0 {
		return nil, fmt.Errorf("%w: duration %s, buffer %s", ErrInvalidWindow, duration, buffer)
	}

	occupancy := duration + buffer

	var starts []time.Time
	for t := roundUpToGrid(open, loc); !t.Add(occupancy).After(close); t = t.Add(SlotGridMinutes * time.Minute) {
		starts = append(starts, t)
	}
	return starts, nil
}
