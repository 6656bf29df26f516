package models

import "time"

type Setting struct {
	Name      string `gorm:"type:text;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Setting) TableName() string {
	return "settings"
}
