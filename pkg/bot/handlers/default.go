package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

const helpText = "Commands:\n" +
	"/submit [message]: submit a daily journal entry.\n" +
	"/history [number]: view your last [number] journal entries (also /journals).\n" +
	"/removelatest: remove your latest journal entry.\n" +
	"/streak: view your current and highest streak.\n" +
	"/remindme H:MM(AM|PM): get a daily reminder if you haven't submitted yet.\n" +
	"/dontremindme: stop your daily reminder.\n" +
	"/export: download all your entries as CSV.\n" +
	"/setreminder H:MM(AM|PM): (admins) remind everyone in this chat daily.\n" +
	"/clearreminder: (admins) stop the chat-wide reminder.\n" +
	"/help: show this message."

// BotCommands is the command menu published to Telegram.
func BotCommands() []models.BotCommand {
	return []models.BotCommand{
		{Command: "submit", Description: "Submit a daily journal entry"},
		{Command: "history", Description: "View your latest journal entries"},
		{Command: "removelatest", Description: "Remove your latest journal entry"},
		{Command: "streak", Description: "View your current and highest streak"},
		{Command: "remindme", Description: "Daily reminder, e.g. /remindme 8:30PM"},
		{Command: "dontremindme", Description: "Stop your daily reminder"},
		{Command: "export", Description: "Download your entries as CSV"},
		{Command: "help", Description: "Show all commands"},
	}
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleHelp")
		return
	}
	reply(ctx, b, update.Message, helpText)
}

// Default answers anything unmatched with the help text, in private chats
// only. Group chatter is ignored.
func (h *Handlers) Default(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	if update.Message.Chat.ID == 0 {
		logger.Error("chat ID is zero in Default")
		return
	}
	if update.Message.Chat.Type != models.ChatTypePrivate {
		return
	}
	reply(ctx, b, update.Message, helpText)
}
