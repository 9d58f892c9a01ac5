package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCalendarInput = errors.New("invalid calendar input")
	ErrInvalidWindow        = errors.New("invalid slot window")
)

// SlotGridMinutes is the spacing of the booking grid. Every candidate start
// and every client-chosen start must lie on a multiple of this within the
// clinic's civil day.
const SlotGridMinutes = 15

// CivilDate is a calendar date with no timezone attached. It only becomes an
// instant when combined with a time of day and the clinic's location.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseCivilDate parses a YYYY-MM-DD string into a CivilDate. Dates that do
// not exist on the calendar (month 13, Feb 30) are rejected.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("%w: date %q", ErrInvalidCalendarInput, s)
	}
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// TimeOfDay is a wall-clock time within a civil day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses a 24-hour HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q", ErrInvalidCalendarInput, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Calendar converts between the clinic's civil time and absolute instants.
// The clinic timezone is fixed configuration; nothing outside this type may
// assume a location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the clinic's IANA timezone, e.g. "Europe/London".
func NewCalendar(timezone string) (Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Calendar{}, fmt.Errorf("%w: timezone %q", ErrInvalidCalendarInput, timezone)
	}
	return Calendar{loc: loc}, nil
}

func (c Calendar) Location() *time.Location {
	return c.loc
}

// At returns the absolute instant the civil date and time denote in the
// clinic's timezone, including the correct UTC offset on DST transition days.
func (c Calendar) At(d CivilDate, t TimeOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, c.loc)
}

// DateOf maps an instant back to the civil date it falls on in clinic time.
func (c Calendar) DateOf(t time.Time) CivilDate {
	local := t.In(c.loc)
	return CivilDate{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// WeekdayIndex returns the weekday of a civil date as 0=Sunday..6=Saturday,
// the numbering the business-hours table uses. Go's time.Weekday happens to
// start at Sunday=0 as well, but the store convention is pinned here rather
// than assumed at call sites. Noon avoids any DST-skipped midnight.
func (c Calendar) WeekdayIndex(d CivilDate) int {
	return int(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, c.loc).Weekday())
}

// RoundUp15 advances an instant to the next 15-minute boundary of the
// clinic's civil clock. An instant already exactly on a boundary is returned
// unchanged; otherwise any sub-minute remainder is zeroed and the minute
// advances to the next multiple of 15.
func (c Calendar) RoundUp15(t time.Time) time.Time {
	return roundUpToGrid(t, c.loc)
}

func roundUpToGrid(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	floored := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute()-local.Minute()%SlotGridMinutes, 0, 0, loc)
	if floored.Equal(local) {
		return floored
	}
	return floored.Add(SlotGridMinutes * time.Minute)
}
