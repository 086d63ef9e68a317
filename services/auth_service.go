package services

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"event-booking-server/models"
	"event-booking-server/utils"
)

// SignupInput is the payload for account creation
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Phone    string
	Address  string
}

// ProfileUpdate holds the profile fields a user may change; nil means unchanged
type ProfileUpdate struct {
	Email   *string
	Phone   *string
	Address *string
}

// AuthService handles accounts and credential checks
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Signup creates a user with a hashed password
func (s *AuthService) Signup(in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrMissingFields)
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
	if role := strings.TrimSpace(in.Role); role != "" {
		user.Role = &role
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("✅ User registered: %s (id=%d)", user.Username, user.ID)
	return &user, nil
}

// Login checks the credentials of a username or email and issues a token carrying the role
func (s *AuthService) Login(identifier, password string) (string, *models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	var user models.User
	err := s.db.Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.RoleName())
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, &user, nil
}

func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes email, phone or address
func (s *AuthService) UpdateProfile(userID uint, in ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: invalid email", ErrMissingFields)
		}
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrUserExists
			}
			updates["email"] = email
		}
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetProfile(userID)
}
