package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the access gate. Anything else is treated as a
// plain user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an identity record. Sessions are owned by their user and removed
// with it.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	Name         string    `gorm:"type:text;not null"`
	Image        string    `gorm:"type:text"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         string    `gorm:"type:text;not null;default:user"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Sessions []Session  `gorm:"constraint:OnDelete:CASCADE"`
	Posts    []BlogPost `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
}

// PublicUser is the projection of a User that is safe to hand to clients
// and to embed in token claims.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}

// Public strips everything that must not leave the server.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// IsAdmin reports whether the user holds the admin role.
func (u PublicUser) IsAdmin() bool { return u.Role == RoleAdmin }
