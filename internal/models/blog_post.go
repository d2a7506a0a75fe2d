package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogPost is an article shown on the public blog. Author name and image
// are denormalized so posts render even after the authoring user is gone.
type BlogPost struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"type:text;not null"`
	Slug        string     `gorm:"type:text;uniqueIndex;not null"`
	Excerpt     string     `gorm:"type:text"`
	Content     string     `gorm:"type:text;not null"`
	CoverImage  string     `gorm:"type:text"`
	AuthorID    *uuid.UUID `gorm:"type:uuid;index"`
	AuthorName  string     `gorm:"type:text"`
	AuthorImage string     `gorm:"type:text"`
	PublishedAt time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`

	Author *User `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID"`
	Tags   []Tag `gorm:"many2many:blog_post_tags"`
}

// Tag labels blog posts and backs the /api/blog/tag/{tag} listing.
type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:text;uniqueIndex;not null"`
	Slug string `gorm:"type:text;uniqueIndex;not null"`
}
