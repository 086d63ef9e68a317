package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// AllBookingStatuses lists the statuses in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusCompleted,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

type Booking struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	EventDate     time.Time       `json:"eventDate" gorm:"not null"`
	TotalPrice    decimal.Decimal `json:"totalPrice" gorm:"type:decimal(10,2);not null"`
	PaymentMethod string          `json:"paymentMethod" gorm:"size:50;not null"`
	PhoneNumber   string          `json:"phoneNumber" gorm:"size:30;not null"`
	Address       string          `json:"address" gorm:"size:500;not null"`
	Status        BookingStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','confirmed','cancelled','completed')"`
	ImageProof    *string         `json:"imageProof" gorm:"size:500"`
	Latitude      *float64        `json:"latitude"`
	Longitude     *float64        `json:"longitude"`
	UserID        uint            `json:"UserId" gorm:"not null;index"`
	PostID        uint            `json:"PostId" gorm:"not null;index"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	User *User `json:"User,omitempty" gorm:"foreignKey:UserID"`
	Post *Post `json:"Post,omitempty" gorm:"foreignKey:PostID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsValid reports whether s is one of the four known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from s
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Staying in the same status is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
