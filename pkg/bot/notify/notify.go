// Package notify delivers reminder intents as Telegram messages.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"github.com/smith3v/tg-journal-bot/pkg/reminders"
)

// Telegram implements reminders.Notifier. Users who left a chat, and chats
// the bot can no longer post to, are skipped without an error.
type Telegram struct {
	b *bot.Bot
}

func New(b *bot.Bot) *Telegram {
	return &Telegram{b: b}
}

var _ reminders.Notifier = (*Telegram)(nil)

func (t *Telegram) Remind(ctx context.Context, intent reminders.Intent) error {
	if !t.isMember(ctx, intent.ServerID, intent.UserID) {
		return nil
	}
	text := fmt.Sprintf("%s, you haven't submitted your journal entry today\\. Use /submit before the day ends\\!", mention(intent.UserID, intent.DisplayName))
	return t.send(ctx, intent.ServerID, intent.ChannelID, text)
}

// Broadcast mentions every still-present user of intents in one message.
func (t *Telegram) Broadcast(ctx context.Context, serverID, channelID int64, intents []reminders.Intent) error {
	var mentions []string
	for _, intent := range intents {
		if t.isMember(ctx, serverID, intent.UserID) {
			mentions = append(mentions, mention(intent.UserID, intent.DisplayName))
		}
	}
	if len(mentions) == 0 {
		return nil
	}
	text := strings.Join(mentions, " ") + "\nMake sure you submit your journal entry before the end of the day\\!"
	return t.send(ctx, serverID, channelID, text)
}

func (t *Telegram) send(ctx context.Context, chatID, channelID int64, text string) error {
	_, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: int(channelID),
		Text:            text,
		ParseMode:       models.ParseModeMarkdown,
	})
	if unresolved(err) {
		logger.Debug("reminder target no longer reachable", "chat_id", chatID, "error", err)
		return nil
	}
	return err
}

// isMember reports whether userID still belongs to the chat. A private chat
// has the same id as its user.
func (t *Telegram) isMember(ctx context.Context, chatID, userID int64) bool {
	if chatID == userID {
		return true
	}
	member, err := t.b.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		logger.Debug("failed to resolve chat member", "chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	if member == nil {
		return false
	}
	switch member.Type {
	case models.ChatMemberTypeLeft, models.ChatMemberTypeBanned:
		return false
	default:
		return true
	}
}

func unresolved(err error) bool {
	return err != nil && (errors.Is(err, bot.ErrorForbidden) || errors.Is(err, bot.ErrorBadRequest) || errors.Is(err, bot.ErrorNotFound))
}

func mention(userID int64, name string) string {
	if strings.TrimSpace(name) == "" {
		name = "journaler"
	}
	return fmt.Sprintf("[%s](tg://user?id=%d)", bot.EscapeMarkdown(name), userID)
}
