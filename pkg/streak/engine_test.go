package streak

import (
	"math/rand"
	"testing"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) *clock.Adapter {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return clock.NewAdapter(loc, clock.TimeOfDay{}, nil)
}

func localAt(t *testing.T, a *clock.Adapter, day, hour int) time.Time {
	t.Helper()
	return time.Date(2026, 10, day, hour, 0, 0, 0, a.Location()).UTC()
}

// apply mimics the ledger: only counted evaluations are persisted.
func apply(prev *Record, at time.Time, dayStart DayStartFunc) (*Record, Result) {
	res := Evaluate(prev, at, dayStart)
	if !res.Incremented {
		return prev, res
	}
	rec := res.Record
	return &rec, res
}

func TestEvaluateScenario(t *testing.T) {
	a := newAdapter(t)

	rec, res := apply(nil, localAt(t, a, 10, 10), a.DayStart)
	assert.Equal(t, Started, res.Outcome)
	assert.True(t, res.Incremented)
	assert.Equal(t, 1, rec.Current)
	assert.Equal(t, 1, rec.Highest)

	firstCounted := *rec.LastCountedAt

	rec, res = apply(rec, localAt(t, a, 10, 22), a.DayStart)
	assert.Equal(t, AlreadyCounted, res.Outcome)
	assert.False(t, res.Incremented)
	assert.Equal(t, 1, rec.Current)
	assert.Equal(t, 1, rec.Highest)
	assert.True(t, rec.LastCountedAt.Equal(firstCounted), "same-day submission must not re-timestamp")

	rec, res = apply(rec, localAt(t, a, 11, 9), a.DayStart)
	assert.Equal(t, Continued, res.Outcome)
	assert.Equal(t, 2, rec.Current)
	assert.Equal(t, 2, rec.Highest)

	// Skip the 12th entirely.
	rec, res = apply(rec, localAt(t, a, 13, 9), a.DayStart)
	assert.Equal(t, Reset, res.Outcome)
	assert.True(t, res.Incremented)
	assert.Equal(t, 1, rec.Current)
	assert.Equal(t, 2, rec.Highest)
}

func TestEvaluateLateNightAndEarlyMorningAreDifferentDays(t *testing.T) {
	a := newAdapter(t)

	// 23:59 and 00:01 local straddle the reference midnight even though both
	// fall on the same UTC date.
	rec, _ := apply(nil, time.Date(2026, 10, 10, 23, 59, 0, 0, a.Location()).UTC(), a.DayStart)
	rec, res := apply(rec, time.Date(2026, 10, 11, 0, 1, 0, 0, a.Location()).UTC(), a.DayStart)

	assert.Equal(t, Continued, res.Outcome)
	assert.Equal(t, 2, rec.Current)
}

func TestEvaluateSameUTCDateDifferentReferenceDays(t *testing.T) {
	a := newAdapter(t)

	// 2026-10-11 06:00 UTC is the 10th in Los Angeles; 08:00 UTC is the 11th.
	rec, _ := apply(nil, time.Date(2026, 10, 11, 6, 0, 0, 0, time.UTC), a.DayStart)
	rec, res := apply(rec, time.Date(2026, 10, 11, 8, 0, 0, 0, time.UTC), a.DayStart)

	assert.Equal(t, Continued, res.Outcome)
	assert.Equal(t, 2, rec.Current)
}

func TestEvaluateContinuesAcrossDSTDays(t *testing.T) {
	a := newAdapter(t)
	loc := a.Location()

	rec, _ := apply(nil, time.Date(2026, 10, 31, 23, 30, 0, 0, loc).UTC(), a.DayStart)
	rec, _ = apply(rec, time.Date(2026, 11, 1, 23, 30, 0, 0, loc).UTC(), a.DayStart) // 25h day
	rec, res := apply(rec, time.Date(2026, 11, 2, 0, 30, 0, 0, loc).UTC(), a.DayStart)

	assert.Equal(t, Continued, res.Outcome)
	assert.Equal(t, 3, rec.Current)
}

func TestEvaluateFutureLastCountedIsNotCounted(t *testing.T) {
	a := newAdapter(t)
	future := localAt(t, a, 20, 9)
	prev := &Record{Current: 4, Highest: 6, LastCountedAt: &future}

	res := Evaluate(prev, localAt(t, a, 18, 9), a.DayStart)

	assert.Equal(t, AlreadyCounted, res.Outcome)
	assert.False(t, res.Incremented)
	assert.Equal(t, *prev, res.Record)
}

func TestEvaluateRecordWithoutTimestampStartsOver(t *testing.T) {
	a := newAdapter(t)
	prev := &Record{Current: 0, Highest: 5}

	res := Evaluate(prev, localAt(t, a, 18, 9), a.DayStart)

	assert.Equal(t, Started, res.Outcome)
	assert.Equal(t, 1, res.Record.Current)
	assert.Equal(t, 5, res.Record.Highest)
}

func TestEvaluateSameDayIdempotence(t *testing.T) {
	a := newAdapter(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		var rec *Record
		start := time.Date(2026, 10, 6+rng.Intn(20), 0, 0, 0, 0, a.Location())
		// Seed some history so the first submission of the day can continue,
		// reset or start.
		if rng.Intn(3) > 0 {
			last := start.AddDate(0, 0, -(1 + rng.Intn(3))).Add(12 * time.Hour).UTC()
			rec = &Record{Current: 1 + rng.Intn(5), Highest: 6, LastCountedAt: &last}
		}

		first := start.Add(time.Duration(rng.Intn(12*60)) * time.Minute)
		rec, _ = apply(rec, first.UTC(), a.DayStart)
		afterFirst := *rec

		for n := rng.Intn(6); n > 0; n-- {
			later := first.Add(time.Duration(rng.Intn(11*60)) * time.Minute)
			rec, _ = apply(rec, later.UTC(), a.DayStart)
		}

		require.Equal(t, afterFirst.Current, rec.Current)
		require.Equal(t, afterFirst.Highest, rec.Highest)
		require.True(t, afterFirst.LastCountedAt.Equal(*rec.LastCountedAt))
	}
}

func TestEvaluateHighestNeverDecreases(t *testing.T) {
	a := newAdapter(t)
	rng := rand.New(rand.NewSource(11))

	var rec *Record
	at := time.Date(2026, 1, 1, 9, 0, 0, 0, a.Location())
	prevHighest := 0
	for i := 0; i < 500; i++ {
		at = at.Add(time.Duration(rng.Intn(60*60)) * time.Minute)
		rec, _ = apply(rec, at.UTC(), a.DayStart)

		require.GreaterOrEqual(t, rec.Highest, rec.Current)
		require.GreaterOrEqual(t, rec.Highest, prevHighest)
		require.GreaterOrEqual(t, rec.Current, 1)
		prevHighest = rec.Highest
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "continued", Continued.String())
	assert.Equal(t, "already_counted", AlreadyCounted.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
