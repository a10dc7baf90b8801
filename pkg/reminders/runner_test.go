package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/smith3v/tg-journal-bot/pkg/db"
	"github.com/smith3v/tg-journal-bot/pkg/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu         sync.Mutex
	reminded   []Intent
	broadcasts map[int64][]Intent
	failUser   int64
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{broadcasts: make(map[int64][]Intent)}
}

func (n *recordingNotifier) Remind(ctx context.Context, intent Intent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if intent.UserID == n.failUser {
		return errors.New("user left the chat")
	}
	n.reminded = append(n.reminded, intent)
	return nil
}

func (n *recordingNotifier) Broadcast(ctx context.Context, serverID, channelID int64, intents []Intent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts[serverID] = append(n.broadcasts[serverID], intents...)
	return nil
}

func TestRunOnceDeliversPersonalAndGroupedBroadcasts(t *testing.T) {
	store := testutil.SetupTestDB(t)
	clk, loc := newAdapter(t)
	ctx := context.Background()

	tick := time.Date(2026, 10, 16, 20, 0, 0, 0, loc)
	remindAt(t, store, clk, 1, 100, clock.TimeOfDay{Hour: 20}, tick)
	remindAt(t, store, clk, 2, 100, clock.TimeOfDay{Hour: 20}, tick)
	earlier := time.Date(2026, 10, 12, 12, 0, 0, 0, loc)
	submitAt(t, store, 3, 300, earlier)
	submitAt(t, store, 4, 300, earlier)
	at := db.TimeColumn(clk.ToStorage(clock.TimeOfDay{Hour: 20}, tick))
	require.NoError(t, store.SaveServerSettings(ctx, &db.ServerSettings{ServerID: 300, ReminderChannelID: 1, ReminderAt: &at}))

	notifier := newRecordingNotifier()
	notifier.failUser = 1
	r := NewRunner(NewScheduler(store, clk), notifier, &sync.Mutex{}, clk)
	r.RunOnce(ctx, tick)

	require.Len(t, notifier.reminded, 1)
	assert.Equal(t, int64(2), notifier.reminded[0].UserID)
	require.Len(t, notifier.broadcasts[300], 2)
	assert.Equal(t, int64(3), notifier.broadcasts[300][0].UserID)
	assert.Equal(t, int64(4), notifier.broadcasts[300][1].UserID)
}

func TestRunOnceReleasesLockBeforeDelivery(t *testing.T) {
	store := testutil.SetupTestDB(t)
	clk, loc := newAdapter(t)

	tick := time.Date(2026, 10, 16, 20, 0, 0, 0, loc)
	remindAt(t, store, clk, 1, 100, clock.TimeOfDay{Hour: 20}, tick)

	mu := &sync.Mutex{}
	notifier := &lockProbe{mu: mu}
	r := NewRunner(NewScheduler(store, clk), notifier, mu, clk)
	r.RunOnce(context.Background(), tick)

	assert.True(t, notifier.called)
	assert.True(t, notifier.acquired, "lock still held while delivering")
}

type lockProbe struct {
	mu       *sync.Mutex
	called   bool
	acquired bool
}

func (p *lockProbe) Remind(ctx context.Context, intent Intent) error {
	p.called = true
	if p.mu.TryLock() {
		p.acquired = true
		p.mu.Unlock()
	}
	return nil
}

func (p *lockProbe) Broadcast(ctx context.Context, serverID, channelID int64, intents []Intent) error {
	return nil
}

func TestRunStopsWithContext(t *testing.T) {
	store := testutil.SetupTestDB(t)
	clk, _ := newAdapter(t)
	r := NewRunner(NewScheduler(store, clk), newRecordingNotifier(), nil, clk)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}
