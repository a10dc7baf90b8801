package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-journal-bot/pkg/export"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
)

func (h *Handlers) HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleExport")
		return
	}
	msg := update.Message

	entries, err := h.svc.Export(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		replyFailure(ctx, b, msg, "export", err)
		return
	}
	if len(entries) == 0 {
		reply(ctx, b, msg, "You have no journal entries to export.")
		return
	}

	data, err := export.BuildCSV(entries)
	if err != nil {
		replyFailure(ctx, b, msg, "export", err)
		return
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:          msg.Chat.ID,
		MessageThreadID: int(channelOf(msg)),
		Document: &models.InputFileUpload{
			Filename: export.Filename(h.svc.Local(h.svc.Clock().Now())),
			Data:     bytes.NewReader(data),
		},
		Caption: fmt.Sprintf("Your journal export (%d entries).", len(entries)),
	})
	if err != nil {
		replyFailure(ctx, b, msg, "export", err)
	}
}
