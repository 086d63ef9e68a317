package models

import (
	"time"
)

// Feedback is a star rating with an optional comment left by a user on a post
type Feedback struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Rating    int       `json:"rating" gorm:"type:int;not null;check:rating >= 1 AND rating <= 5"`
	Comment   *string   `json:"comment" gorm:"type:text"`
	UserID    uint      `json:"UserId" gorm:"not null;index"`
	PostID    uint      `json:"PostId" gorm:"not null;index"`
	BookingID *uint     `json:"BookingId" gorm:"index"` // linked when the user booked the post
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	User    *User    `json:"User,omitempty" gorm:"foreignKey:UserID"`
	Post    *Post    `json:"Post,omitempty" gorm:"foreignKey:PostID"`
	Booking *Booking `json:"Booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName sets custom table name
func (Feedback) TableName() string { return "feedback" }
