package models

import "time"

type ImportJob struct {
	ID                string   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	SourcePath        string   `gorm:"type:text;not null"`
	RootAccountID     string   `gorm:"type:text;not null"`
	BatchID           *string  `gorm:"type:text"`
	Status            string   `gorm:"type:text;not null"`
	ProgressProcessed int64    `gorm:"not null;default:0"`
	UsersCount        int64    `gorm:"not null;default:0"`
	Errors            []string `gorm:"type:jsonb;serializer:json"`
	Warnings          []string `gorm:"type:jsonb;serializer:json"`
	Attempts          int      `gorm:"not null;default:0"`
	MaxAttempts       int      `gorm:"not null;default:5"`
	ErrorMessage      *string  `gorm:"type:text"`
	HeartbeatAt       *time.Time
	LeaseExpiresAt    *time.Time
	StartedAt         *time.Time
	FinishedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
