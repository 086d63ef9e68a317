package models

import (
	"strings"
	"time"
)

// Roles are free text; these are the values that grant admin access.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role         *string   `json:"role" gorm:"size:50"`
	Phone        string    `json:"phone" gorm:"size:30"`
	Address      string    `json:"address" gorm:"size:500"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	Bookings      []Booking      `json:"bookings,omitempty" gorm:"foreignKey:UserID"`
	Notifications []Notification `json:"notifications,omitempty" gorm:"foreignKey:UserID"`
	Feedback      []Feedback     `json:"feedback,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// RoleName returns the role or an empty string when none is set
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return *u.Role
}

// IsAdmin checks if the user holds an admin role
func (u *User) IsAdmin() bool {
	return IsAdminRole(u.RoleName())
}

// IsAdminRole compares a role case-insensitively against the admin roles.
func IsAdminRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
