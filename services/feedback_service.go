package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"event-booking-server/cache"
	"event-booking-server/models"
	"event-booking-server/monitoring"
)

// StarCount is the number and share of ratings with a given star value.
// Percentage is a one-decimal string, or the number 0 when the post has no feedback.
type StarCount struct {
	Count      int64       `json:"count"`
	Percentage interface{} `json:"percentage"`
}

// FeedbackStats aggregates a post's ratings.
// AverageRating is a one-decimal string such as "4.7", or the number 0 when there is no feedback.
type FeedbackStats struct {
	TotalCount    int64                `json:"totalCount"`
	AverageRating interface{}          `json:"averageRating"`
	StarCounts    map[string]StarCount `json:"starCounts"`
}

// SubmitFeedbackInput is a new rating from a user
type SubmitFeedbackInput struct {
	Rating  int
	Comment *string
	PostID  uint
	UserID  uint
}

// FeedbackService handles ratings and their per-post statistics
type FeedbackService struct {
	db    *gorm.DB
	stats cache.StatsCache
}

func NewFeedbackService(db *gorm.DB, stats cache.StatsCache) *FeedbackService {
	if stats == nil {
		stats = cache.NoopStatsCache{}
	}
	return &FeedbackService{db: db, stats: stats}
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func withFeedbackRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "username") }).
		Preload("Post", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "category", "image") })
}

func (s *FeedbackService) invalidate(ctx context.Context, postID uint) {
	if err := s.stats.Invalidate(ctx, postID); err != nil {
		log.Printf("⚠️ Failed to invalidate feedback stats for post %d: %v", postID, err)
	}
}

// Submit stores a rating and links it to the user's latest booking of the post, if any
func (s *FeedbackService) Submit(ctx context.Context, in SubmitFeedbackInput) (*models.Feedback, error) {
	if in.Rating == 0 || in.PostID == 0 || in.UserID == 0 {
		return nil, ErrMissingFields
	}
	if !validRating(in.Rating) {
		return nil, ErrInvalidRating
	}

	var postCount int64
	if err := s.db.Model(&models.Post{}).Where("id = ?", in.PostID).Count(&postCount).Error; err != nil {
		return nil, err
	}
	if postCount == 0 {
		return nil, ErrPostNotFound
	}

	feedback := models.Feedback{
		Rating:  in.Rating,
		Comment: trimComment(in.Comment),
		UserID:  in.UserID,
		PostID:  in.PostID,
	}

	var booking models.Booking
	err := s.db.Select("id").
		Where("user_id = ? AND post_id = ?", in.UserID, in.PostID).
		Order("created_at DESC, id DESC").
		First(&booking).Error
	switch {
	case err == nil:
		feedback.BookingID = &booking.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := s.db.Create(&feedback).Error; err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.invalidate(ctx, in.PostID)
	monitoring.TrackFeedbackSubmitted()
	return &feedback, nil
}

func trimComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ListAll returns every feedback with its author and post, newest first
func (s *FeedbackService) ListAll() ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := withFeedbackRelations(s.db).Order("created_at DESC, id DESC").Find(&feedback).Error
	return feedback, err
}

func (s *FeedbackService) ListForPost(postID uint) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := withFeedbackRelations(s.db).
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&feedback).Error
	return feedback, err
}

func (s *FeedbackService) ListForUser(userID uint) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := withFeedbackRelations(s.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&feedback).Error
	return feedback, err
}

// FilterByStars returns the post's feedback with exactly rating stars
func (s *FeedbackService) FilterByStars(postID uint, rating int) ([]models.Feedback, error) {
	if !validRating(rating) {
		return nil, ErrInvalidRating
	}
	var feedback []models.Feedback
	err := withFeedbackRelations(s.db).
		Where("post_id = ? AND rating = ?", postID, rating).
		Order("created_at DESC, id DESC").
		Find(&feedback).Error
	return feedback, err
}

// StatsForPost computes the rating summary of a post, served from the cache when possible
func (s *FeedbackService) StatsForPost(ctx context.Context, postID uint) (*FeedbackStats, error) {
	var cached FeedbackStats
	found, err := s.stats.Get(ctx, postID, &cached)
	if err != nil {
		log.Printf("⚠️ Feedback stats cache read failed for post %d: %v", postID, err)
	}
	if found {
		return &cached, nil
	}

	var rows []struct {
		Rating int
		Count  int64
	}
	err = s.db.Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := computeStats(rows)
	if err := s.stats.Set(ctx, postID, stats); err != nil {
		log.Printf("⚠️ Feedback stats cache write failed for post %d: %v", postID, err)
	}
	return stats, nil
}

func computeStats(rows []struct {
	Rating int
	Count  int64
}) *FeedbackStats {
	counts := make(map[int]int64, 5)
	var total, sum int64
	for _, row := range rows {
		counts[row.Rating] += row.Count
		total += row.Count
		sum += int64(row.Rating) * row.Count
	}

	stats := &FeedbackStats{
		TotalCount:    total,
		AverageRating: 0,
		StarCounts:    make(map[string]StarCount, 5),
	}
	if total > 0 {
		stats.AverageRating = decimal.NewFromInt(sum).
			Div(decimal.NewFromInt(total)).
			Round(1).
			StringFixed(1)
	}

	for star := 1; star <= 5; star++ {
		sc := StarCount{Count: counts[star], Percentage: 0}
		if total > 0 {
			sc.Percentage = decimal.NewFromInt(counts[star] * 100).
				Div(decimal.NewFromInt(total)).
				StringFixed(1)
		}
		stats.StarCounts[strconv.Itoa(star)] = sc
	}
	return stats
}

// UpdateFeedbackInput holds the optional fields an owner may change
type UpdateFeedbackInput struct {
	Rating  *int
	Comment *string
}

// Update edits the user's own feedback
func (s *FeedbackService) Update(ctx context.Context, id, userID uint, in UpdateFeedbackInput) (*models.Feedback, error) {
	if in.Rating == nil && in.Comment == nil {
		return nil, ErrMissingFields
	}
	if in.Rating != nil && !validRating(*in.Rating) {
		return nil, ErrInvalidRating
	}

	var feedback models.Feedback
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Rating != nil {
		feedback.Rating = *in.Rating
		updates["rating"] = *in.Rating
	}
	if in.Comment != nil {
		feedback.Comment = trimComment(in.Comment)
		updates["comment"] = feedback.Comment
	}
	if err := s.db.Model(&feedback).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}

	s.invalidate(ctx, feedback.PostID)
	return &feedback, nil
}

// Delete removes feedback owned by userID, or any feedback when isAdmin
func (s *FeedbackService) Delete(ctx context.Context, id, userID uint, isAdmin bool) error {
	var feedback models.Feedback
	query := s.db.Where("id = ?", id)
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		return err
	}

	if err := s.db.Delete(&feedback).Error; err != nil {
		return err
	}
	s.invalidate(ctx, feedback.PostID)
	return nil
}
