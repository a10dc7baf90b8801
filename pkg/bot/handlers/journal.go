package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/journal"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

const historyTimeLayout = "Monday, January 02 2006 at 03:04PM"

func (h *Handlers) HandleSubmit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleSubmit")
		return
	}
	msg := update.Message
	author := authorOf(msg)

	sub, err := h.svc.Submit(ctx, author, h.args(msg))
	if errors.Is(err, journal.ErrEmptyMessage) {
		reply(ctx, b, msg, "Please provide a journal entry to submit, for example /submit Today I learned about streaks.")
		return
	}
	if err != nil {
		replyFailure(ctx, b, msg, "submit", err)
		return
	}

	if sub.Counted {
		reply(ctx, b, msg, fmt.Sprintf("Thank you %s for sending your daily journal. Your daily journal streak is now %d.", author.Name, sub.Streak.Current))
		return
	}
	reply(ctx, b, msg, fmt.Sprintf("Thank you for sending your journal entry, %s. You've already submitted one today, so your streak still stands at %d.", author.Name, sub.Streak.Current))
}

// HandleHistory sends the latest entries one message each, newest first. A
// missing or non-numeric argument means the default count.
func (h *Handlers) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleHistory")
		return
	}
	msg := update.Message

	n, err := strconv.Atoi(h.args(msg))
	if err != nil {
		n = 0
	}
	entries, err := h.svc.History(ctx, msg.From.ID, msg.Chat.ID, n)
	if err != nil {
		replyFailure(ctx, b, msg, "history", err)
		return
	}
	if len(entries) == 0 {
		reply(ctx, b, msg, "You have no journal entries.")
		return
	}

	for _, entry := range entries {
		name := entry.AuthorName
		if name == "" {
			name = displayName(msg.From)
		}
		when := h.svc.Local(entry.SubmittedAt).Format(historyTimeLayout)
		reply(ctx, b, msg, fmt.Sprintf("%s\n\n%s, %s", entry.Message, name, when))
	}
}

func (h *Handlers) HandleRemoveLatest(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleRemoveLatest")
		return
	}
	msg := update.Message

	removed, err := h.svc.RemoveLatest(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		replyFailure(ctx, b, msg, "removelatest", err)
		return
	}
	if !removed {
		reply(ctx, b, msg, "No journal entries to remove.")
		return
	}
	reply(ctx, b, msg, "Your latest journal entry has been removed.")
}

func (h *Handlers) HandleStreak(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStreak")
		return
	}
	msg := update.Message

	rec, ok, err := h.svc.Streak(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		replyFailure(ctx, b, msg, "streak", err)
		return
	}
	if !ok {
		reply(ctx, b, msg, "You don't have a streak yet.")
		return
	}
	reply(ctx, b, msg, fmt.Sprintf("Your current streak is %d and your highest streak is %d.", rec.Current, rec.Highest))
}
