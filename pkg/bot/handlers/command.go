// Package handlers binds Telegram updates to journal commands.
//
// A Telegram chat plays the role of a server and a forum topic the role of a
// channel; private chats are one-member servers.
package handlers

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/journal"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

const failureText = "Something went wrong. Please try again later."

// Handlers serves every journal command through one journal.Service.
type Handlers struct {
	svc      *journal.Service
	username string
}

// New returns Handlers for svc. username is the bot's own username; when set,
// commands addressed to another bot (/cmd@other_bot) are not matched.
func New(svc *journal.Service, username string) *Handlers {
	return &Handlers{svc: svc, username: strings.TrimPrefix(username, "@")}
}

// SetUsername must be called before the bot starts handling updates.
func (h *Handlers) SetUsername(username string) {
	h.username = strings.TrimPrefix(username, "@")
}

// Register installs all command handlers on b.
func (h *Handlers) Register(b *bot.Bot) {
	commands := map[string]bot.HandlerFunc{
		"submit":        h.HandleSubmit,
		"journals":      h.HandleHistory,
		"history":       h.HandleHistory,
		"removelatest":  h.HandleRemoveLatest,
		"streak":        h.HandleStreak,
		"remindme":      h.HandleRemindMe,
		"dontremindme":  h.HandleDontRemindMe,
		"export":        h.HandleExport,
		"help":          h.HandleHelp,
		"start":         h.HandleHelp,
		"setreminder":   h.HandleSetServerReminder,
		"clearreminder": h.HandleClearServerReminder,
	}
	for name, handler := range commands {
		b.RegisterHandlerMatchFunc(h.Match(name), handler)
	}
}

// Match reports whether an update carries the named command.
func (h *Handlers) Match(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update == nil || update.Message == nil {
			return false
		}
		cmd, _, ok := h.parseCommand(update.Message.Text)
		return ok && cmd == name
	}
}

// parseCommand splits "/cmd@bot rest" into its lower-cased command name and
// the remaining text.
func (h *Handlers) parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], strings.TrimSpace(text[i:])
	}
	name := strings.ToLower(strings.TrimPrefix(head, "/"))
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		name = name[:at]
		if h.username != "" && !strings.EqualFold(target, h.username) {
			return "", "", false
		}
	}
	if name == "" {
		return "", "", false
	}
	return name, rest, true
}

func (h *Handlers) args(msg *models.Message) string {
	_, rest, _ := h.parseCommand(msg.Text)
	return rest
}

func validMessage(update *models.Update) bool {
	return update != nil && update.Message != nil && update.Message.From != nil && update.Message.Chat.ID != 0
}

func authorOf(msg *models.Message) journal.Author {
	return journal.Author{
		UserID:    msg.From.ID,
		ServerID:  msg.Chat.ID,
		ChannelID: channelOf(msg),
		Name:      displayName(msg.From),
	}
}

func channelOf(msg *models.Message) int64 {
	if !msg.IsTopicMessage {
		return 0
	}
	return int64(msg.MessageThreadID)
}

func displayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func reply(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		MessageThreadID: int(channelOf(msg)),
		Text:            text,
	})
	if err != nil {
		logger.Error("failed to send message", "chat_id", msg.Chat.ID, "error", err)
	}
}

func replyFailure(ctx context.Context, b *bot.Bot, msg *models.Message, op string, err error) {
	logger.Error("command failed", "command", op, "user_id", msg.From.ID, "chat_id", msg.Chat.ID, "error", err)
	reply(ctx, b, msg, failureText)
}

// isAdmin reports whether the sender may manage the chat's server-wide
// settings. Everybody administers their own private chat.
func isAdmin(ctx context.Context, b *bot.Bot, msg *models.Message) (bool, error) {
	if msg.Chat.Type == models.ChatTypePrivate {
		return true, nil
	}
	member, err := b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
	})
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, errors.New("empty chat member")
	}
	switch member.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator:
		return true, nil
	default:
		return false, nil
	}
}
