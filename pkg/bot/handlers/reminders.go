package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/journal"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

func (h *Handlers) HandleRemindMe(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleRemindMe")
		return
	}
	msg := update.Message

	r, err := h.svc.SetReminder(ctx, authorOf(msg), h.args(msg))
	if errors.Is(err, journal.ErrInvalidTime) {
		reply(ctx, b, msg, "Invalid time format. Please use H:MM followed by AM or PM, for example /remindme 8:30PM.")
		return
	}
	if err != nil {
		replyFailure(ctx, b, msg, "remindme", err)
		return
	}
	reply(ctx, b, msg, fmt.Sprintf("I'll remind you every day at %s (%s) if you haven't submitted your journal yet.", r.Local.Format12h(), h.svc.Clock().Location()))
}

func (h *Handlers) HandleDontRemindMe(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleDontRemindMe")
		return
	}
	msg := update.Message

	deleted, err := h.svc.ClearReminder(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		replyFailure(ctx, b, msg, "dontremindme", err)
		return
	}
	if !deleted {
		reply(ctx, b, msg, "You don't have a reminder set.")
		return
	}
	reply(ctx, b, msg, "Your reminder has been cleared.")
}

// HandleSetServerReminder sets the chat-wide reminder that mentions every
// journaler who has not submitted yet. Chat administrators only.
func (h *Handlers) HandleSetServerReminder(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleSetServerReminder")
		return
	}
	msg := update.Message

	admin, err := isAdmin(ctx, b, msg)
	if err != nil {
		replyFailure(ctx, b, msg, "setreminder", err)
		return
	}
	r, err := h.svc.SetServerReminder(ctx, authorOf(msg), admin, h.args(msg))
	switch {
	case errors.Is(err, journal.ErrNotAdmin):
		reply(ctx, b, msg, "Only chat administrators can set the daily reminder.")
	case errors.Is(err, journal.ErrInvalidTime):
		reply(ctx, b, msg, "Invalid time format. Please use H:MM followed by AM or PM, for example /setreminder 8:00PM.")
	case err != nil:
		replyFailure(ctx, b, msg, "setreminder", err)
	default:
		reply(ctx, b, msg, fmt.Sprintf("Daily reminder set to %s (%s).", r.Local.Format12h(), h.svc.Clock().Location()))
	}
}

func (h *Handlers) HandleClearServerReminder(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleClearServerReminder")
		return
	}
	msg := update.Message

	admin, err := isAdmin(ctx, b, msg)
	if err != nil {
		replyFailure(ctx, b, msg, "clearreminder", err)
		return
	}
	cleared, err := h.svc.ClearServerReminder(ctx, msg.Chat.ID, admin)
	switch {
	case errors.Is(err, journal.ErrNotAdmin):
		reply(ctx, b, msg, "Only chat administrators can clear the daily reminder.")
	case err != nil:
		replyFailure(ctx, b, msg, "clearreminder", err)
	case !cleared:
		reply(ctx, b, msg, "No daily reminder is set.")
	default:
		reply(ctx, b, msg, "Daily reminder cleared.")
	}
}
