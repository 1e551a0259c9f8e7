package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

const DateLayout = "2006-01-02"

// Clock is a wall-clock time of day.
type Clock struct {
	Hour, Minute, Second int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Offset is the time elapsed since midnight.
func (c Clock) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute + time.Duration(c.Second)*time.Second
}

// ParseClock accepts HH:MM or HH:MM:SS on a 24h clock.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
}

// NormalizeClock rewrites a clock string as HH:MM:SS.
func NormalizeClock(s string) (string, error) {
	c, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ParseDate parses YYYY-MM-DD as midnight in loc. A trailing "T..." time part is ignored.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Combine places clock on the calendar day of date, in date's location.
func Combine(date time.Time, clock string) (time.Time, error) {
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, date.Location()), nil
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Intervals that only touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// EffectiveEnd is the appointment's recorded end, or start+fallback for rows without one.
func EffectiveEnd(appt model.Appointment, start time.Time, fallback time.Duration) (time.Time, error) {
	if strings.TrimSpace(appt.EndTime) == "" {
		return start.Add(fallback), nil
	}
	return Combine(start, appt.EndTime)
}

// appointmentInterval resolves an appointment's [start,end) on day.
func appointmentInterval(day time.Time, appt model.Appointment, fallback time.Duration) (time.Time, time.Time, error) {
	start, err := Combine(day, appt.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("appointment %s start: %w", appt.ID, err)
	}
	end, err := EffectiveEnd(appt, start, fallback)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("appointment %s end: %w", appt.ID, err)
	}
	return start, end, nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
