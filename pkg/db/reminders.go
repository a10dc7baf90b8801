package db

import (
	"context"
	"errors"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeColumn converts a storage-timezone time of day to its column value.
func TimeColumn(t clock.TimeOfDay) datatypes.Time {
	return datatypes.NewTime(t.Hour, t.Minute, 0, 0)
}

func (p ReminderPreference) StorageTime() clock.TimeOfDay {
	return clock.FromDuration(time.Duration(p.RemindAt))
}

func (s ServerSettings) StorageTime() (clock.TimeOfDay, bool) {
	if s.ReminderAt == nil {
		return clock.TimeOfDay{}, false
	}
	return clock.FromDuration(time.Duration(*s.ReminderAt)), true
}

// UpsertReminder replaces any existing preference of the pair.
func (s *Store) UpsertReminder(ctx context.Context, pref *ReminderPreference) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "server_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "display_name", "remind_at", "local_time", "updated_at"}),
		}).
		Create(pref).Error
}

func (s *Store) DeleteReminder(ctx context.Context, userID, serverID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND server_id = ?", userID, serverID).
		Delete(&ReminderPreference{})
	return res.RowsAffected > 0, res.Error
}

// GetReminder returns nil when the pair has no preference.
func (s *Store) GetReminder(ctx context.Context, userID, serverID int64) (*ReminderPreference, error) {
	var pref ReminderPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND server_id = ?", userID, serverID).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// DueReminders lists the preferences whose stored time equals at.
func (s *Store) DueReminders(ctx context.Context, at clock.TimeOfDay) ([]ReminderPreference, error) {
	var prefs []ReminderPreference
	err := s.db.WithContext(ctx).
		Where("remind_at = ?", TimeColumn(at)).
		Order("server_id, user_id").
		Find(&prefs).Error
	return prefs, err
}

// RemindedUsers returns the ids of users with a personal preference in the
// server.
func (s *Store) RemindedUsers(ctx context.Context, serverID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&ReminderPreference{}).
		Where("server_id = ?", serverID).
		Pluck("user_id", &ids).Error
	return ids, err
}
