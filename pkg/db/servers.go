package db

import (
	"context"
	"errors"

	"github.com/smith3v/tg-journal-bot/pkg/clock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetServerSettings returns nil when nothing was ever configured.
func (s *Store) GetServerSettings(ctx context.Context, serverID int64) (*ServerSettings, error) {
	var settings ServerSettings
	err := s.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveServerSettings(ctx context.Context, settings *ServerSettings) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "server_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reminder_channel_id", "reminder_at", "reminder_local_time", "updated_by", "updated_at"}),
		}).
		Create(settings).Error
}

// ClearServerReminder disables the daily reminder and reports whether one
// was set.
func (s *Store) ClearServerReminder(ctx context.Context, serverID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&ServerSettings{}).
		Where("server_id = ? AND reminder_at IS NOT NULL", serverID).
		Updates(map[string]any{"reminder_at": nil, "reminder_local_time": ""})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) DueServerReminders(ctx context.Context, at clock.TimeOfDay) ([]ServerSettings, error) {
	var settings []ServerSettings
	err := s.db.WithContext(ctx).
		Where("reminder_at = ?", TimeColumn(at)).
		Order("server_id").
		Find(&settings).Error
	return settings, err
}
