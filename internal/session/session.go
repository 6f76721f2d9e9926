package session

import (
	"fmt"
	"strings"
	"time"
)

// Clock answers whether the market is trading at a given instant.
type Clock interface {
	IsOpen(now time.Time) bool
}

// DefaultWindows are the domestic commodity futures sessions, night session included.
var DefaultWindows = []string{"09:00-11:30", "13:30-15:00", "21:00-23:59", "00:00-02:30"}

type window struct {
	start, end int // minutes since midnight, inclusive
}

// Schedule is a Clock built from daily HH:MM-HH:MM windows in one location.
type Schedule struct {
	loc     *time.Location
	windows []window
}

// NewSchedule parses windows such as "09:00-11:30" evaluated in timezone tz.
func NewSchedule(tz string, windows []string) (*Schedule, error) {
	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("at least one session window is required")
	}

	parsed := make([]window, 0, len(windows))
	for _, raw := range windows {
		w, err := parseWindow(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, w)
	}
	return &Schedule{loc: loc, windows: parsed}, nil
}

// IsOpen reports whether now falls inside any window (bounds inclusive, minute precision).
func (s *Schedule) IsOpen(now time.Time) bool {
	local := now.In(s.loc)
	minute := local.Hour()*60 + local.Minute()
	for _, w := range s.windows {
		if minute >= w.start && minute <= w.end {
			return true
		}
	}
	return false
}

// ValidateWindows checks window syntax without building a Schedule.
func ValidateWindows(windows []string) error {
	for _, raw := range windows {
		if _, err := parseWindow(raw); err != nil {
			return err
		}
	}
	return nil
}

func parseWindow(raw string) (window, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return window{}, fmt.Errorf("session window %q must look like HH:MM-HH:MM", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return window{}, fmt.Errorf("session window %q: %w", raw, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return window{}, fmt.Errorf("session window %q: %w", raw, err)
	}
	if end < start {
		return window{}, fmt.Errorf("session window %q ends before it starts; split windows crossing midnight", raw)
	}
	return window{start: start, end: end}, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Always is a Clock with a fixed answer, used when session gating is not wanted.
type Always bool

// IsOpen returns the fixed answer.
func (a Always) IsOpen(time.Time) bool { return bool(a) }
