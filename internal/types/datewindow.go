package types

import (
	"time"

	ierr "github.com/creatorly/churnalytics/internal/errors"
)

// DateFormat is the wire format for all calendar-date keys.
const DateFormat = "2006-01-02"

// DefaultWindowDays is the range used when the caller does not pass dates.
const DefaultWindowDays = 30

// DateWindow is a clamped, timezone-aware analysis window. Start and End are
// calendar dates (midnight UTC time.Time values, inclusive on both ends) in
// the tenant's local calendar. A window is immutable after construction;
// clamping happens in NewDateWindow, never afterwards.
type DateWindow struct {
	Start time.Time
	End   time.Time
	Loc   *time.Location

	daily   []time.Time
	monthly []time.Time
}

// DateOnly projects an instant into loc and truncates it to a calendar date,
// represented as midnight UTC. Calendar dates are kept in UTC so day
// arithmetic never crosses DST transitions.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDateWindow builds a valid window for a tenant.
//
// rawStart and rawEnd each accept nil, a time.Time, or a "YYYY-MM-DD" string.
// A time.Time at exactly midnight UTC is taken as a calendar date verbatim;
// any other instant is projected into loc before its date is extracted. Any
// other type, or a string that does not parse, fails with ErrInvalidDateRange.
//
// Clamping: start is clamped to [earliest, today]; end is then clamped to
// [start, today]. An inverted input range therefore collapses to a one-day
// window at start rather than erroring. That mirrors the dashboard's
// historical behavior and is deliberate, if surprising.
func NewDateWindow(now time.Time, loc *time.Location, earliest time.Time, rawStart, rawEnd interface{}) (*DateWindow, error) {
	today := DateOnly(now, loc)

	start, err := parseRawDate(rawStart, loc, today.AddDate(0, 0, -DefaultWindowDays))
	if err != nil {
		return nil, err
	}
	end, err := parseRawDate(rawEnd, loc, today)
	if err != nil {
		return nil, err
	}

	earliestDate := DateOnly(earliest, time.UTC)
	start = clampDate(start, earliestDate, today)
	end = clampDate(end, start, today)

	w := &DateWindow{Start: start, End: end, Loc: loc}
	w.enumerate()
	return w, nil
}

func parseRawDate(raw interface{}, loc *time.Location, fallback time.Time) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return fallback, nil
	case time.Time:
		if v.Location() == time.UTC && v.Equal(v.Truncate(24*time.Hour)) {
			return v, nil
		}
		return DateOnly(v, loc), nil
	case string:
		parsed, err := time.ParseInLocation(DateFormat, v, time.UTC)
		if err != nil {
			return time.Time{}, ierr.WithError(err).
				WithHint("Date must be in YYYY-MM-DD format").
				WithReportableDetails(map[string]interface{}{
					"value": v,
				}).
				Mark(ierr.ErrInvalidDateRange)
		}
		return parsed, nil
	default:
		return time.Time{}, ierr.NewErrorf("unsupported date input of type %T", raw).
			WithHint("Date must be a date, a timestamp, or a YYYY-MM-DD string").
			WithReportableDetails(map[string]interface{}{
				"value": raw,
			}).
			Mark(ierr.ErrInvalidDateRange)
	}
}

func clampDate(d, min, max time.Time) time.Time {
	if d.Before(min) {
		return min
	}
	if d.After(max) {
		return max
	}
	return d
}

// enumerate precomputes the daily and monthly date lists. Both are derived
// once at construction and reused for the window's lifetime.
func (w *DateWindow) enumerate() {
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		w.daily = append(w.daily, d)
	}

	seen := make(map[string]struct{}, 2)
	for _, d := range w.daily {
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := first.Format(DateFormat)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		w.monthly = append(w.monthly, first)
	}
}

// DailyDates returns every calendar date in the window, in order.
func (w *DateWindow) DailyDates() []time.Time {
	return w.daily
}

// MonthlyDates returns the distinct first-of-month dates touched by the
// window, in chronological order.
func (w *DateWindow) MonthlyDates() []time.Time {
	return w.monthly
}

// Days returns the window length in days, inclusive of both ends.
func (w *DateWindow) Days() int {
	return len(w.daily)
}

// StartKey returns the start date as a YYYY-MM-DD string.
func (w *DateWindow) StartKey() string {
	return w.Start.Format(DateFormat)
}

// EndKey returns the end date as a YYYY-MM-DD string.
func (w *DateWindow) EndKey() string {
	return w.End.Format(DateFormat)
}

// StartOfWindow returns the instant the window begins in the tenant's
// timezone: local midnight of Start. Used for "active before window" cutoffs.
func (w *DateWindow) StartOfWindow() time.Time {
	return time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, w.Loc)
}
