// Package clock defines what "now" and "today" mean for the journal.
//
// Instants are stored and compared in UTC. Day boundaries are decided in a
// single reference timezone at a fixed time of day; every day-boundary
// computation in the bot goes through Adapter.
package clock

import (
	"fmt"
	"time"
)

// Adapter converts between the storage timezone (UTC) and the reference
// timezone used for day-boundary decisions.
//
// Wall-clock times that do not map to exactly one instant are resolved with a
// fixed policy: an ambiguous time (clocks turned back) resolves to the earlier
// instant, a skipped time (clocks turned forward) resolves to the first
// instant after the gap.
type Adapter struct {
	loc      *time.Location
	boundary TimeOfDay
	now      func() time.Time
}

// NewAdapter returns an Adapter for loc whose streak day starts at boundary.
// A nil now uses time.Now.
func NewAdapter(loc *time.Location, boundary TimeOfDay, now func() time.Time) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Adapter{loc: loc, boundary: boundary, now: now}
}

// Load builds an Adapter from an IANA timezone name and an "HH:MM" boundary.
func Load(timezone, boundary string) (*Adapter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	tod := TimeOfDay{}
	if boundary != "" {
		tod, err = Parse24h(boundary)
		if err != nil {
			return nil, fmt.Errorf("parse day boundary: %w", err)
		}
	}
	return NewAdapter(loc, tod, nil), nil
}

func (a *Adapter) Now() time.Time {
	return a.now().UTC()
}

func (a *Adapter) Location() *time.Location {
	return a.loc
}

func (a *Adapter) Boundary() TimeOfDay {
	return a.boundary
}

// DayBoundary returns the UTC instant of the most recent occurrence of tod in
// the reference timezone at or before instant.
func (a *Adapter) DayBoundary(instant time.Time, tod TimeOfDay) time.Time {
	local := instant.In(a.loc)
	year, month, day := local.Date()

	candidate := a.resolve(year, month, day, tod)
	if candidate.After(instant) {
		candidate = a.resolve(year, month, day-1, tod)
	}
	return candidate.UTC()
}

// DayStart returns the start of the streak day containing instant.
func (a *Adapter) DayStart(instant time.Time) time.Time {
	return a.DayBoundary(instant, a.boundary)
}

// PreviousDayStart returns the start of the streak day before the one that
// begins at dayStart. Reference days may be 23 or 25 hours long, so this is
// not dayStart minus 24h.
func (a *Adapter) PreviousDayStart(dayStart time.Time) time.Time {
	return a.DayStart(dayStart.Add(-time.Nanosecond))
}

// MinuteKey returns the storage-timezone time of day of instant, truncated to
// the minute. Reminder registries are keyed by this value.
func (a *Adapter) MinuteKey(instant time.Time) TimeOfDay {
	utc := instant.UTC()
	return TimeOfDay{Hour: utc.Hour(), Minute: utc.Minute()}
}

// ToStorage converts a reference-timezone time of day to the storage
// timezone, using the UTC offset in effect on the reference date of on.
func (a *Adapter) ToStorage(tod TimeOfDay, on time.Time) TimeOfDay {
	year, month, day := on.In(a.loc).Date()
	return a.MinuteKey(a.resolve(year, month, day, tod))
}

// ToReference converts a storage-timezone time of day back to the reference
// timezone, using the UTC offset in effect at that time on the UTC date of on.
func (a *Adapter) ToReference(tod TimeOfDay, on time.Time) TimeOfDay {
	year, month, day := on.UTC().Date()
	instant := time.Date(year, month, day, tod.Hour, tod.Minute, 0, 0, time.UTC).In(a.loc)
	return TimeOfDay{Hour: instant.Hour(), Minute: instant.Minute()}
}

// Local formats instant in the reference timezone.
func (a *Adapter) Local(instant time.Time) time.Time {
	return instant.In(a.loc)
}

// resolve maps a reference wall-clock time to a UTC instant.
func (a *Adapter) resolve(year int, month time.Month, day int, tod TimeOfDay) time.Time {
	wall := time.Date(year, month, day, tod.Hour, tod.Minute, 0, 0, time.UTC)

	// Any offset that can apply to this wall time is in effect within a day
	// of it.
	var (
		best  time.Time
		found bool
		gap   time.Time
	)
	for _, probe := range []time.Time{wall.Add(-24 * time.Hour), wall.Add(24 * time.Hour)} {
		_, offset := probe.In(a.loc).Zone()
		candidate := wall.Add(-time.Duration(offset) * time.Second)
		if sameWall(candidate.In(a.loc), wall) {
			if !found || candidate.Before(best) {
				best = candidate
				found = true
			}
			continue
		}
		if gap.IsZero() || candidate.After(gap) {
			gap = candidate
		}
	}
	if found {
		return best
	}

	// Skipped wall time: the later candidate lands after the transition, and
	// the zone period it falls in starts exactly where the gap ends.
	start, _ := gap.In(a.loc).ZoneBounds()
	if start.IsZero() {
		return gap
	}
	return start.UTC()
}

func sameWall(local, wall time.Time) bool {
	y1, m1, d1 := local.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 &&
		local.Hour() == wall.Hour() && local.Minute() == wall.Minute()
}
