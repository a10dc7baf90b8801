// Package journal implements the journal commands over the entry store,
// the streak ledger and the reminder registry.
//
// Every operation runs under one shared lock, so commands and reminder ticks
// never interleave and the streak read-evaluate-persist sequence is never
// executed concurrently.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"github.com/smith3v/tg-journal-bot/pkg/db"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"github.com/smith3v/tg-journal-bot/pkg/streak"
)

var (
	ErrEmptyMessage = errors.New("journal entry is empty")
	ErrInvalidTime  = errors.New("invalid reminder time")
	ErrNotAdmin     = errors.New("administrator rights required")
)

type EntryStore interface {
	AppendEntry(ctx context.Context, entry *db.JournalEntry) error
	RemoveLatestEntry(ctx context.Context, userID, serverID int64) (bool, error)
	RecentEntries(ctx context.Context, userID, serverID int64, limit int) ([]db.JournalEntry, error)
	AllEntries(ctx context.Context, userID, serverID int64) ([]db.JournalEntry, error)
}

type StreakLedger interface {
	GetStreak(ctx context.Context, userID, serverID int64) (*db.StreakRecord, error)
	SaveStreak(ctx context.Context, rec *db.StreakRecord) error
}

type ReminderRegistry interface {
	UpsertReminder(ctx context.Context, pref *db.ReminderPreference) error
	DeleteReminder(ctx context.Context, userID, serverID int64) (bool, error)
	GetReminder(ctx context.Context, userID, serverID int64) (*db.ReminderPreference, error)
}

type ServerSettingsStore interface {
	GetServerSettings(ctx context.Context, serverID int64) (*db.ServerSettings, error)
	SaveServerSettings(ctx context.Context, settings *db.ServerSettings) error
	ClearServerReminder(ctx context.Context, serverID int64) (bool, error)
}

// Store is everything the service persists through. *db.Store satisfies it.
type Store interface {
	EntryStore
	StreakLedger
	ReminderRegistry
	ServerSettingsStore
}

// Author identifies who issued a command and where.
type Author struct {
	UserID    int64
	ServerID  int64
	ChannelID int64
	Name      string
}

type Options struct {
	HistoryDefault int
	HistoryMax     int
}

type Service struct {
	store          Store
	clock          *clock.Adapter
	mu             sync.Locker
	historyDefault int
	historyMax     int
}

func NewService(store Store, clk *clock.Adapter, mu sync.Locker, opts Options) *Service {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	if opts.HistoryDefault <= 0 {
		opts.HistoryDefault = 10
	}
	if opts.HistoryMax < opts.HistoryDefault {
		opts.HistoryMax = opts.HistoryDefault
	}
	return &Service{
		store:          store,
		clock:          clk,
		mu:             mu,
		historyDefault: opts.HistoryDefault,
		historyMax:     opts.HistoryMax,
	}
}

func (s *Service) Clock() *clock.Adapter {
	return s.clock
}

// Submission is the result of a submit command.
type Submission struct {
	Entry   db.JournalEntry
	Streak  streak.Record
	Outcome streak.Outcome
	Counted bool
}

// Submit appends an entry and applies it to the author's streak. The ledger
// is written only when the submission counted for a new day.
func (s *Service) Submit(ctx context.Context, author Author, message string) (Submission, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Submission{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	entry := db.JournalEntry{
		UserID:      author.UserID,
		ServerID:    author.ServerID,
		ChannelID:   author.ChannelID,
		AuthorName:  author.Name,
		Message:     message,
		SubmittedAt: now,
	}
	if err := s.store.AppendEntry(ctx, &entry); err != nil {
		return Submission{}, fmt.Errorf("append entry: %w", err)
	}

	prev, err := s.store.GetStreak(ctx, author.UserID, author.ServerID)
	if err != nil {
		return Submission{}, fmt.Errorf("load streak: %w", err)
	}
	res := streak.Evaluate(recordOf(prev), now, s.clock.DayStart)
	if res.Incremented {
		if err := s.store.SaveStreak(ctx, &db.StreakRecord{
			UserID:        author.UserID,
			ServerID:      author.ServerID,
			CurrentStreak: res.Record.Current,
			HighestStreak: res.Record.Highest,
			LastCountedAt: res.Record.LastCountedAt,
		}); err != nil {
			return Submission{}, fmt.Errorf("save streak: %w", err)
		}
	}

	logger.Debug("journal entry submitted",
		"user_id", author.UserID,
		"server_id", author.ServerID,
		"outcome", res.Outcome.String(),
		"current", res.Record.Current,
	)
	return Submission{
		Entry:   entry,
		Streak:  res.Record,
		Outcome: res.Outcome,
		Counted: res.Incremented,
	}, nil
}

// HistoryLimit returns the number of entries a history request for n yields.
// A non-positive n means the default.
func (s *Service) HistoryLimit(n int) int {
	if n <= 0 {
		return s.historyDefault
	}
	if n > s.historyMax {
		return s.historyMax
	}
	return n
}

// History returns the most recent entries, newest first.
func (s *Service) History(ctx context.Context, userID, serverID int64, n int) ([]db.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.RecentEntries(ctx, userID, serverID, s.HistoryLimit(n))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// RemoveLatest deletes the entry with the greatest submission time. The
// streak ledger is not rolled back.
func (s *Service) RemoveLatest(ctx context.Context, userID, serverID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.RemoveLatestEntry(ctx, userID, serverID)
	if err != nil {
		return false, fmt.Errorf("remove latest entry: %w", err)
	}
	return removed, nil
}

// Streak returns the pair's streak, or false when it has none yet.
func (s *Service) Streak(ctx context.Context, userID, serverID int64) (streak.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetStreak(ctx, userID, serverID)
	if err != nil {
		return streak.Record{}, false, fmt.Errorf("load streak: %w", err)
	}
	if rec == nil {
		return streak.Record{}, false, nil
	}
	return *recordOf(rec), true, nil
}

// Reminder is a stored reminder time in both timezones.
type Reminder struct {
	Local   clock.TimeOfDay
	Storage clock.TimeOfDay
}

// SetReminder parses value as H:MM(AM|PM) in the reference timezone and
// replaces the author's reminder.
func (s *Service) SetReminder(ctx context.Context, author Author, value string) (Reminder, error) {
	local, err := clock.Parse12h(value)
	if err != nil {
		return Reminder{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := Reminder{Local: local, Storage: s.clock.ToStorage(local, s.clock.Now())}
	pref := &db.ReminderPreference{
		UserID:      author.UserID,
		ServerID:    author.ServerID,
		ChannelID:   author.ChannelID,
		DisplayName: author.Name,
		RemindAt:    db.TimeColumn(r.Storage),
		LocalTime:   local.Format12h(),
	}
	if err := s.store.UpsertReminder(ctx, pref); err != nil {
		return Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	return r, nil
}

// Reminder returns the author's stored reminder converted back to the
// reference timezone, or false when none is set.
func (s *Service) Reminder(ctx context.Context, userID, serverID int64) (Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pref, err := s.store.GetReminder(ctx, userID, serverID)
	if err != nil {
		return Reminder{}, false, fmt.Errorf("load reminder: %w", err)
	}
	if pref == nil {
		return Reminder{}, false, nil
	}
	stored := pref.StorageTime()
	return Reminder{Local: s.clock.ToReference(stored, s.clock.Now()), Storage: stored}, true, nil
}

func (s *Service) ClearReminder(ctx context.Context, userID, serverID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.store.DeleteReminder(ctx, userID, serverID)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return deleted, nil
}

// Export returns all of the pair's entries, oldest first.
func (s *Service) Export(ctx context.Context, userID, serverID int64) ([]db.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.AllEntries(ctx, userID, serverID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// SetServerReminder sets the server-wide daily reminder, posted to the
// author's channel. admin reports whether the author may manage the server.
func (s *Service) SetServerReminder(ctx context.Context, author Author, admin bool, value string) (Reminder, error) {
	if !admin {
		return Reminder{}, ErrNotAdmin
	}
	local, err := clock.Parse12h(value)
	if err != nil {
		return Reminder{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := Reminder{Local: local, Storage: s.clock.ToStorage(local, s.clock.Now())}
	at := db.TimeColumn(r.Storage)
	if err := s.store.SaveServerSettings(ctx, &db.ServerSettings{
		ServerID:          author.ServerID,
		ReminderChannelID: author.ChannelID,
		ReminderAt:        &at,
		ReminderLocalTime: local.Format12h(),
		UpdatedBy:         author.UserID,
	}); err != nil {
		return Reminder{}, fmt.Errorf("save server settings: %w", err)
	}
	logger.Info("server reminder set", "server_id", author.ServerID, "by", author.UserID, "storage_time", r.Storage.String())
	return r, nil
}

func (s *Service) ClearServerReminder(ctx context.Context, serverID int64, admin bool) (bool, error) {
	if !admin {
		return false, ErrNotAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cleared, err := s.store.ClearServerReminder(ctx, serverID)
	if err != nil {
		return false, fmt.Errorf("clear server reminder: %w", err)
	}
	return cleared, nil
}

// Local converts a stored instant to the reference timezone for display.
func (s *Service) Local(t time.Time) time.Time {
	return s.clock.Local(t)
}

func recordOf(rec *db.StreakRecord) *streak.Record {
	if rec == nil {
		return nil
	}
	return &streak.Record{
		Current:       rec.CurrentStreak,
		Highest:       rec.HighestStreak,
		LastCountedAt: rec.LastCountedAt,
	}
}
