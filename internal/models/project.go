package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project is a portfolio entry. Technologies is a JSON array of strings.
type Project struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title        string         `gorm:"type:text;not null"`
	Slug         string         `gorm:"type:text;uniqueIndex;not null"`
	Description  string         `gorm:"type:text"`
	Content      string         `gorm:"type:text"`
	ImageURL     string         `gorm:"type:text"`
	DemoURL      string         `gorm:"type:text"`
	GithubURL    string         `gorm:"type:text"`
	Technologies datatypes.JSON `gorm:"type:jsonb"`
	Featured     bool           `gorm:"not null;default:false;index"`
	SortOrder    int            `gorm:"not null;default:0"`
	PublishedAt  time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}
