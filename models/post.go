package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Post is an event or service that users can book and rate
type Post struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"size:255;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	Category        string          `json:"category" gorm:"size:100;index"`
	Image           string          `json:"image" gorm:"size:500"`
	BasePrice       decimal.Decimal `json:"basePrice" gorm:"type:decimal(10,2);not null"`
	SelectedAddons  datatypes.JSON  `json:"selectedAddons"`
	IsSpecial       bool            `json:"isSpecial" gorm:"not null"`
	SpecialFeatures string          `json:"specialFeatures" gorm:"type:text"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Relationships
	Bookings []Booking  `json:"-" gorm:"foreignKey:PostID"`
	Feedback []Feedback `json:"-" gorm:"foreignKey:PostID"`
}

// TableName specifies the table name for the Post model
func (Post) TableName() string {
	return "posts"
}
