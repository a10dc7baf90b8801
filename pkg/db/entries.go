package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Journaler is a user who has at least one entry in a server.
type Journaler struct {
	UserID     int64
	AuthorName string
}

func (s *Store) AppendEntry(ctx context.Context, entry *JournalEntry) error {
	entry.SubmittedAt = entry.SubmittedAt.UTC()
	return s.db.WithContext(ctx).Create(entry).Error
}

// LatestEntry returns nil when the pair has no entries.
func (s *Store) LatestEntry(ctx context.Context, userID, serverID int64) (*JournalEntry, error) {
	var entries []JournalEntry
	err := s.entriesOf(ctx, s.db, userID, serverID).
		Order("submitted_at DESC, id DESC").
		Limit(1).
		Find(&entries).Error
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// RemoveLatestEntry deletes the entry with the greatest submission time and
// reports whether there was one.
func (s *Store) RemoveLatestEntry(ctx context.Context, userID, serverID int64) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest JournalEntry
		res := s.entriesOf(ctx, tx, userID, serverID).
			Order("submitted_at DESC, id DESC").
			Limit(1).
			Find(&latest)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Delete(&JournalEntry{}, latest.ID).Error; err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (s *Store) HasSubmittedSince(ctx context.Context, userID, serverID int64, since time.Time) (bool, error) {
	var count int64
	err := s.entriesOf(ctx, s.db, userID, serverID).
		Where("submitted_at >= ?", since.UTC()).
		Count(&count).Error
	return count > 0, err
}

// RecentEntries returns at most limit entries, newest first.
func (s *Store) RecentEntries(ctx context.Context, userID, serverID int64, limit int) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.entriesOf(ctx, s.db, userID, serverID).
		Order("submitted_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// AllEntries returns every entry of the pair, oldest first.
func (s *Store) AllEntries(ctx context.Context, userID, serverID int64) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.entriesOf(ctx, s.db, userID, serverID).
		Order("submitted_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (s *Store) Journalers(ctx context.Context, serverID int64) ([]Journaler, error) {
	var out []Journaler
	err := s.db.WithContext(ctx).
		Model(&JournalEntry{}).
		Select("user_id, MAX(author_name) AS author_name").
		Where("server_id = ?", serverID).
		Group("user_id").
		Order("user_id").
		Scan(&out).Error
	return out, err
}

func (s *Store) entriesOf(ctx context.Context, tx *gorm.DB, userID, serverID int64) *gorm.DB {
	return tx.WithContext(ctx).
		Model(&JournalEntry{}).
		Where("user_id = ? AND server_id = ?", userID, serverID)
}
