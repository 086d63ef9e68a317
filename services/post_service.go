package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"event-booking-server/models"
)

// PostInput carries the writable fields of a post
type PostInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	SelectedAddons  datatypes.JSON  `json:"selectedAddons"`
	IsSpecial       bool            `json:"isSpecial"`
	SpecialFeatures string          `json:"specialFeatures"`
}

func (in PostInput) apply(p *models.Post) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Category = strings.TrimSpace(in.Category)
	p.Image = in.Image
	p.BasePrice = in.BasePrice
	p.SelectedAddons = in.SelectedAddons
	p.IsSpecial = in.IsSpecial
	p.SpecialFeatures = in.SpecialFeatures
}

// PostService manages the event and service listings
type PostService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewPostService(db *gorm.DB, notifications *NotificationService) *PostService {
	return &PostService{db: db, notifications: notifications}
}

// List returns posts, newest first, optionally restricted to a category
func (s *PostService) List(category string) ([]models.Post, error) {
	query := s.db.Order("created_at DESC, id DESC")
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) Get(id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create inserts the post and notifies every user in the same transaction
func (s *PostService) Create(in PostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Title) == "" || in.BasePrice.IsNegative() {
		return nil, ErrMissingFields
	}

	var post models.Post
	in.apply(&post)

	var notified []models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		var err error
		notified, err = s.notifications.OnPostCreated(tx, &post)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	log.Printf("🔔 Post %d created, %d users notified", post.ID, len(notified))
	s.notifications.Push(notified)
	return &post, nil
}

func (s *PostService) Update(id uint, in PostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Title) == "" || in.BasePrice.IsNegative() {
		return nil, ErrMissingFields
	}

	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	in.apply(post)
	if err := s.db.Save(post).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// Delete removes a post together with its bookings and feedback
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPostNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}
