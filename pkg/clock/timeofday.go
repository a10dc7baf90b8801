package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute resolution, without a date or
// a timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var ErrInvalidTimeOfDay = errors.New("invalid time of day")

var (
	twelveHourPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s?([AaPp][Mm])$`)
	dayBoundaryLayout = "15:04"
)

// Parse12h parses the public reminder format H:MM(AM|PM), e.g. "8:30PM".
func Parse12h(value string) (TimeOfDay, error) {
	m := twelveHourPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	hour %= 12
	if strings.EqualFold(m[3], "pm") {
		hour += 12
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Parse24h parses "HH:MM" in 24-hour notation.
func Parse24h(value string) (TimeOfDay, error) {
	t, err := time.Parse(dayBoundaryLayout, strings.TrimSpace(value))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FromDuration converts an offset since midnight, as stored in time-of-day
// columns, to a TimeOfDay.
func FromDuration(d time.Duration) TimeOfDay {
	minutes := int(d/time.Minute) % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.MinuteOfDay()) * time.Minute
}

func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// String renders the 24-hour form, "20:30".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12h renders the public form, "8:30PM".
func (t TimeOfDay) Format12h() string {
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	hour := t.Hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, t.Minute, suffix)
}
