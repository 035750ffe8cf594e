package models

import "time"

// User is an account owned by the identity service. Role and Active are the
// two fields the leadership sync protocol mutates; other services never
// create or edit user rows directly.
type User struct {
	Username     string `gorm:"primaryKey;size:64" json:"username"`
	Email        string `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"size:64" json:"first_name"`
	LastName     string `gorm:"size:64" json:"last_name"`
	Role         Role   `gorm:"size:16;default:'member'" json:"role"`
	Active       bool   `gorm:"default:false" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
