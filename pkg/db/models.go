// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

// JournalEntry is one submission. Entries are append-only; the only deletion
// is removing the latest entry of a (user, server) pair.
type JournalEntry struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      int64     `gorm:"not null;index:idx_entry_user_server_time,priority:1"`
	ServerID    int64     `gorm:"not null;index:idx_entry_user_server_time,priority:2;index:idx_entry_server"`
	ChannelID   int64     `gorm:"not null;default:0"`
	AuthorName  string    `gorm:"not null;default:''"`
	Message     string    `gorm:"type:text;not null"`
	SubmittedAt time.Time `gorm:"not null;index:idx_entry_user_server_time,priority:3"`
}

// StreakRecord is keyed by (user, server) and never deleted.
type StreakRecord struct {
	UserID        int64 `gorm:"primaryKey;autoIncrement:false"`
	ServerID      int64 `gorm:"primaryKey;autoIncrement:false"`
	CurrentStreak int   `gorm:"not null;default:0"`
	HighestStreak int   `gorm:"not null;default:0"`
	LastCountedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReminderPreference holds at most one daily reminder per (user, server).
// RemindAt is already normalized to the storage timezone (UTC); LocalTime is
// the reference-timezone time the user asked for, kept for display.
type ReminderPreference struct {
	UserID      int64          `gorm:"primaryKey;autoIncrement:false"`
	ServerID    int64          `gorm:"primaryKey;autoIncrement:false"`
	ChannelID   int64          `gorm:"not null;default:0"`
	DisplayName string         `gorm:"not null;default:''"`
	RemindAt    datatypes.Time `gorm:"not null;index"`
	LocalTime   string         `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ServerSettings carries the administrator-managed daily reminder of a
// server. A nil ReminderAt disables it.
type ServerSettings struct {
	ServerID          int64           `gorm:"primaryKey;autoIncrement:false"`
	ReminderChannelID int64           `gorm:"not null;default:0"`
	ReminderAt        *datatypes.Time `gorm:"index"`
	ReminderLocalTime string          `gorm:"not null;default:''"`
	UpdatedBy         int64           `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ServerSettings) TableName() string {
	return "server_settings"
}

func allModels() []any {
	return []any{&JournalEntry{}, &StreakRecord{}, &ReminderPreference{}, &ServerSettings{}}
}
