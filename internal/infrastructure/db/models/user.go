package models

import "time"

type User struct {
	ID              string  `gorm:"type:uuid;primaryKey"`
	Name            string  `gorm:"size:255;not null"`
	ManagedName     *string `gorm:"size:255"`
	WorkflowState   string  `gorm:"size:32;not null"`
	CreationBatchID *string `gorm:"type:text"`
	Logins          []Login `gorm:"foreignKey:UserID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}

type Login struct {
	ID                     string  `gorm:"type:uuid;primaryKey"`
	UserID                 string  `gorm:"type:uuid;index;not null"`
	AccountID              string  `gorm:"type:text;not null"`
	UniqueID               string  `gorm:"size:255;not null"`
	ExternalSourceID       *string `gorm:"size:255"`
	ExternalUserID         *string `gorm:"size:255"`
	WorkflowState          string  `gorm:"size:32;not null"`
	CryptedPassword        *string `gorm:"type:text"`
	PasswordAutoGenerated  bool    `gorm:"not null;default:false"`
	ExternalPasswordHash   *string `gorm:"type:text"`
	PersistenceToken       string  `gorm:"type:text;not null"`
	CommunicationChannelID *string `gorm:"type:uuid"`
	BatchID                *string `gorm:"type:text"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Login) TableName() string {
	return "logins"
}

type CommunicationChannel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	UserID        string  `gorm:"type:uuid;index;not null"`
	LoginID       *string `gorm:"type:uuid"`
	Path          string  `gorm:"size:320;not null"`
	PathType      string  `gorm:"size:32;not null"`
	WorkflowState string  `gorm:"size:32;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CommunicationChannel) TableName() string {
	return "communication_channels"
}

type Enrollment struct {
	ID            int64  `gorm:"primaryKey"`
	UserID        string `gorm:"type:uuid;index;not null"`
	RootAccountID string `gorm:"type:text;not null"`
	WorkflowState string `gorm:"size:32;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Enrollment) TableName() string {
	return "enrollments"
}
