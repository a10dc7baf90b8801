// Package reminders decides, once per minute, who should be nudged to write
// today's journal entry, and delivers those nudges.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/smith3v/tg-journal-bot/pkg/db"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

// Store is the read side of the entry store and the reminder registries.
type Store interface {
	DueReminders(ctx context.Context, at clock.TimeOfDay) ([]db.ReminderPreference, error)
	DueServerReminders(ctx context.Context, at clock.TimeOfDay) ([]db.ServerSettings, error)
	HasSubmittedSince(ctx context.Context, userID, serverID int64, since time.Time) (bool, error)
	Journalers(ctx context.Context, serverID int64) ([]db.Journaler, error)
	RemindedUsers(ctx context.Context, serverID int64) ([]int64, error)
}

// Intent asks for one user to be reminded in one server. Broadcast intents
// come from a server-wide reminder and are delivered grouped per server.
type Intent struct {
	UserID      int64
	ServerID    int64
	ChannelID   int64
	DisplayName string
	Broadcast   bool
}

type Scheduler struct {
	store Store
	clock *clock.Adapter
}

func NewScheduler(store Store, clk *clock.Adapter) *Scheduler {
	return &Scheduler{store: store, clock: clk}
}

// Tick returns the reminders due at now for users who have not submitted
// since the start of the current streak day. A failure for one user is logged
// and skipped; a failed registry query is returned alongside whatever intents
// the other registry produced.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) ([]Intent, error) {
	key := s.clock.MinuteKey(now)
	dayStart := s.clock.DayStart(now)

	var (
		intents []Intent
		errs    []error
	)

	personal, err := s.personal(ctx, key, dayStart)
	if err != nil {
		errs = append(errs, err)
	}
	intents = append(intents, personal...)

	broadcast, err := s.broadcast(ctx, key, dayStart)
	if err != nil {
		errs = append(errs, err)
	}
	intents = append(intents, broadcast...)

	return intents, errors.Join(errs...)
}

func (s *Scheduler) personal(ctx context.Context, key clock.TimeOfDay, dayStart time.Time) ([]Intent, error) {
	prefs, err := s.store.DueReminders(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}

	var intents []Intent
	for _, pref := range prefs {
		submitted, err := s.store.HasSubmittedSince(ctx, pref.UserID, pref.ServerID, dayStart)
		if err != nil {
			logger.Error("failed to check today's entry", "user_id", pref.UserID, "server_id", pref.ServerID, "error", err)
			continue
		}
		if submitted {
			continue
		}
		intents = append(intents, Intent{
			UserID:      pref.UserID,
			ServerID:    pref.ServerID,
			ChannelID:   pref.ChannelID,
			DisplayName: pref.DisplayName,
		})
	}
	return intents, nil
}

// broadcast covers every journaler of a server with a due server-wide
// reminder, except users who have a personal reminder there.
func (s *Scheduler) broadcast(ctx context.Context, key clock.TimeOfDay, dayStart time.Time) ([]Intent, error) {
	servers, err := s.store.DueServerReminders(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list due server reminders: %w", err)
	}

	var intents []Intent
	for _, server := range servers {
		journalers, err := s.store.Journalers(ctx, server.ServerID)
		if err != nil {
			logger.Error("failed to list journalers", "server_id", server.ServerID, "error", err)
			continue
		}
		reminded, err := s.store.RemindedUsers(ctx, server.ServerID)
		if err != nil {
			logger.Error("failed to list personal reminders", "server_id", server.ServerID, "error", err)
			continue
		}
		skip := make(map[int64]struct{}, len(reminded))
		for _, id := range reminded {
			skip[id] = struct{}{}
		}

		for _, j := range journalers {
			if _, ok := skip[j.UserID]; ok {
				continue
			}
			submitted, err := s.store.HasSubmittedSince(ctx, j.UserID, server.ServerID, dayStart)
			if err != nil {
				logger.Error("failed to check today's entry", "user_id", j.UserID, "server_id", server.ServerID, "error", err)
				continue
			}
			if submitted {
				continue
			}
			intents = append(intents, Intent{
				UserID:      j.UserID,
				ServerID:    server.ServerID,
				ChannelID:   server.ReminderChannelID,
				DisplayName: j.AuthorName,
				Broadcast:   true,
			})
		}
	}
	return intents, nil
}
