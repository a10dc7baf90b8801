// Package streak decides how a journal submission affects a consecutive-day
// streak. It performs no I/O.
package streak

import "time"

// Record is the streak state of one (user, server) pair.
type Record struct {
	Current       int
	Highest       int
	LastCountedAt *time.Time
}

// Outcome describes what a submission did to the streak.
type Outcome int

const (
	// Started is the first counted submission for the pair.
	Started Outcome = iota
	// Continued extends a streak whose last counted day was yesterday.
	Continued
	// Reset restarts the streak at 1 after a gap of at least one full day.
	Reset
	// AlreadyCounted means today already counted; nothing changes.
	AlreadyCounted
)

func (o Outcome) String() string {
	switch o {
	case Started:
		return "started"
	case Continued:
		return "continued"
	case Reset:
		return "reset"
	case AlreadyCounted:
		return "already_counted"
	default:
		return "unknown"
	}
}

// Result is the evaluated streak. Record must be persisted only when
// Incremented is true.
type Result struct {
	Record      Record
	Outcome     Outcome
	Incremented bool
}

// DayStartFunc returns the start of the streak day containing an instant.
type DayStartFunc func(time.Time) time.Time

// Evaluate applies a submission made at the given instant to prev, which is
// nil when the pair has no record yet.
//
// A submission on a day that already counted leaves the record untouched,
// including LastCountedAt, so repeated submissions never move the day used by
// the next evaluation. A last counted day after today (clock drift) is
// treated the same way.
func Evaluate(prev *Record, at time.Time, dayStart DayStartFunc) Result {
	at = at.UTC()
	if prev == nil || prev.LastCountedAt == nil {
		highest := 1
		if prev != nil && prev.Highest > highest {
			highest = prev.Highest
		}
		return Result{
			Record:      Record{Current: 1, Highest: highest, LastCountedAt: &at},
			Outcome:     Started,
			Incremented: true,
		}
	}

	today := dayStart(at)
	yesterday := dayStart(today.Add(-time.Nanosecond))
	lastDay := dayStart(*prev.LastCountedAt)

	next := *prev
	var outcome Outcome
	switch {
	case lastDay.Equal(yesterday):
		next.Current = prev.Current + 1
		outcome = Continued
	case lastDay.Before(yesterday):
		next.Current = 1
		outcome = Reset
	default:
		return Result{Record: *prev, Outcome: AlreadyCounted}
	}

	if next.Current > next.Highest {
		next.Highest = next.Current
	}
	next.LastCountedAt = &at
	return Result{Record: next, Outcome: outcome, Incremented: true}
}
