package logs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format of filter dates, as entered in a date input
const DateLayout = "2006-01-02"

// backendTimeLayout matches the ISO form the backend expects for start/end
const backendTimeLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidDate is returned when a filter date is not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// Window is an optional date range in whole days
type Window struct {
	StartDate string
	EndDate   string
}

// Filter is the state every log filter shares: a date window and an owner match
type Filter interface {
	Window() Window
	Owner() string
}

// ConversationFilter narrows conversation logs
type ConversationFilter struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	UserEmail  string `json:"user_email"`
	SearchText string `json:"search_text"`
}

func (f ConversationFilter) Window() Window { return Window{StartDate: f.StartDate, EndDate: f.EndDate} }
func (f ConversationFilter) Owner() string  { return f.UserEmail }

// PlatformFilter narrows platform logs
type PlatformFilter struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	UserEmail string `json:"user_email"`
	Operation string `json:"operation"`
	ErrorOnly bool   `json:"error_only"`
}

func (f PlatformFilter) Window() Window { return Window{StartDate: f.StartDate, EndDate: f.EndDate} }
func (f PlatformFilter) Owner() string  { return f.UserEmail }

// Validate checks both dates
func (w Window) Validate() error {
	for _, d := range []string{w.StartDate, w.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}
	return nil
}

// bounds resolves the window in loc: start is midnight of the start day,
// end is the last instant of the end day.
func (w Window) bounds(loc *time.Location) (start, end time.Time, hasStart, hasEnd bool) {
	if w.StartDate != "" {
		if t, err := time.ParseInLocation(DateLayout, w.StartDate, loc); err == nil {
			start, hasStart = t, true
		}
	}
	if w.EndDate != "" {
		if t, err := time.ParseInLocation(DateLayout, w.EndDate, loc); err == nil {
			end, hasEnd = t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
		}
	}
	return start, end, hasStart, hasEnd
}

// Query renders the window for the backend. Both dates are sent as UTC
// midnight of the calendar date; the end date is not padded.
func (w Window) Query() (start, end string) {
	if w.StartDate != "" {
		if t, err := time.Parse(DateLayout, w.StartDate); err == nil {
			start = t.Format(backendTimeLayout)
		}
	}
	if w.EndDate != "" {
		if t, err := time.Parse(DateLayout, w.EndDate); err == nil {
			end = t.Format(backendTimeLayout)
		}
	}
	return start, end
}

// IsZero reports whether no date is set
func (w Window) IsZero() bool {
	return w.StartDate == "" && w.EndDate == ""
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// ParseTimestamp reads a record timestamp. Timestamps without a zone are
// taken to be in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inWindow applies the date window. A record whose timestamp cannot be read
// is never excluded by dates.
func inWindow(ts string, w Window, loc *time.Location) bool {
	if w.IsZero() {
		return true
	}
	t, ok := ParseTimestamp(ts, loc)
	if !ok {
		return true
	}
	start, end, hasStart, hasEnd := w.bounds(loc)
	if hasStart && t.Before(start) {
		return false
	}
	if hasEnd && t.After(end) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
