package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Experience is one entry on the work-experience timeline. A nil EndDate
// together with Current marks the ongoing position.
type Experience struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Company          string         `gorm:"type:text;not null"`
	Position         string         `gorm:"type:text;not null"`
	Location         string         `gorm:"type:text"`
	StartDate        time.Time      `gorm:"not null;index"`
	EndDate          *time.Time
	Current          bool           `gorm:"not null;default:false"`
	Description      string         `gorm:"type:text"`
	Responsibilities datatypes.JSON `gorm:"type:jsonb"`
	URL              string         `gorm:"type:text"`
	Technologies     datatypes.JSON `gorm:"type:jsonb"`
	SortOrder        int            `gorm:"not null;default:0"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}
