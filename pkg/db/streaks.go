package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetStreak returns nil when the pair has never submitted.
func (s *Store) GetStreak(ctx context.Context, userID, serverID int64) (*StreakRecord, error) {
	var rec StreakRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND server_id = ?", userID, serverID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveStreak inserts or overwrites the record of rec's (user, server) pair.
func (s *Store) SaveStreak(ctx context.Context, rec *StreakRecord) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "server_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_streak", "highest_streak", "last_counted_at", "updated_at"}),
		}).
		Create(rec).Error
}
