package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

const everyMinute = "* * * * *"

// Notifier delivers reminder intents. Remind handles one personal reminder;
// Broadcast handles all broadcast intents of one server in a single call.
type Notifier interface {
	Remind(ctx context.Context, intent Intent) error
	Broadcast(ctx context.Context, serverID, channelID int64, intents []Intent) error
}

// Runner ticks the Scheduler once per minute and hands the intents to a
// Notifier. The shared lock is held while the tick reads the registries and
// released before any message is sent.
type Runner struct {
	scheduler *Scheduler
	notifier  Notifier
	mu        sync.Locker
	clock     *clock.Adapter
}

func NewRunner(scheduler *Scheduler, notifier Notifier, mu sync.Locker, clk *clock.Adapter) *Runner {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Runner{scheduler: scheduler, notifier: notifier, mu: mu, clock: clk}
}

// Run blocks until ctx is done. Missed minutes are not backfilled.
func (r *Runner) Run(ctx context.Context) error {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(everyMinute, func() {
		r.RunOnce(ctx, r.clock.Now())
	}); err != nil {
		return err
	}

	c.Start()
	logger.Info("reminder scheduler started")
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	logger.Info("reminder scheduler stopped")
	return nil
}

// RunOnce performs a single tick at now and delivers its intents.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) {
	tickID := uuid.NewString()

	r.mu.Lock()
	intents, err := r.scheduler.Tick(ctx, now)
	r.mu.Unlock()
	if err != nil {
		logger.Error("reminder tick failed", "tick_id", tickID, "error", err)
	}
	if len(intents) == 0 {
		logger.Debug("reminder tick", "tick_id", tickID, "minute", r.clock.MinuteKey(now).String(), "due", 0)
		return
	}
	logger.Info("reminder tick", "tick_id", tickID, "minute", r.clock.MinuteKey(now).String(), "due", len(intents))

	r.deliver(ctx, tickID, intents)
}

type broadcastKey struct {
	serverID  int64
	channelID int64
}

func (r *Runner) deliver(ctx context.Context, tickID string, intents []Intent) {
	var (
		order  []broadcastKey
		groups = make(map[broadcastKey][]Intent)
	)
	for _, intent := range intents {
		if !intent.Broadcast {
			if err := r.notifier.Remind(ctx, intent); err != nil {
				logger.Error("failed to send reminder", "tick_id", tickID, "user_id", intent.UserID, "server_id", intent.ServerID, "error", err)
			}
			continue
		}
		key := broadcastKey{serverID: intent.ServerID, channelID: intent.ChannelID}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], intent)
	}

	for _, key := range order {
		if err := r.notifier.Broadcast(ctx, key.serverID, key.channelID, groups[key]); err != nil {
			logger.Error("failed to send server reminder", "tick_id", tickID, "server_id", key.serverID, "error", err)
		}
	}
}

// cronLogger routes cron's own messages into pkg/logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
