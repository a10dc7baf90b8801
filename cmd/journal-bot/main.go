package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/smith3v/tg-journal-bot/pkg/bot/handlers"
	"github.com/smith3v/tg-journal-bot/pkg/bot/notify"
	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/smith3v/tg-journal-bot/pkg/config"
	"github.com/smith3v/tg-journal-bot/pkg/db"
	"github.com/smith3v/tg-journal-bot/pkg/journal"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"github.com/smith3v/tg-journal-bot/pkg/reminders"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.LoadConfig(config.Path()); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	clk, err := clock.Load(cfg.Journal.Timezone, cfg.Journal.DayBoundary)
	if err != nil {
		logger.Error("failed to load reference timezone", "error", err)
		os.Exit(1)
	}

	store, err := db.Open(cfg.Database, cfg.Logging.GormLevel)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Commands and reminder ticks take turns on this lock.
	mu := &sync.Mutex{}
	svc := journal.NewService(store, clk, mu, journal.Options{
		HistoryDefault: cfg.Journal.HistoryDefault,
		HistoryMax:     cfg.Journal.HistoryMax,
	})

	h := handlers.New(svc, "")
	b, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(h.Default))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	if me, err := b.GetMe(ctx); err != nil {
		logger.Warn("failed to read bot identity", "error", err)
	} else {
		h.SetUsername(me.Username)
	}
	h.Register(b)
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: handlers.BotCommands()}); err != nil {
		logger.Warn("failed to publish command list", "error", err)
	}

	runner := reminders.NewRunner(reminders.NewScheduler(store, clk), notify.New(b), mu, clk)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting bot...", "timezone", clk.Location().String(), "day_boundary", clk.Boundary().String())
		b.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("bot stopped with error", "error", err)
	}
	logger.Info("bot stopped")
}
