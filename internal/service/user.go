package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// UserView is a user together with whether the viewer follows them.
type UserView struct {
	models.User
	IsSubscribed bool
}

// UserService manages accounts and their passwords.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates an account. Email and username must be unused.
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	verr := &ValidationError{}
	if err := validation.Struct(req); err != nil {
		verr.Merge(validation.Fields(err))
	}
	if msg := passwordProblem(req.Password); msg != "" && verr.Fields["password"] == nil {
		verr.Add("password", msg)
	}
	if !verr.Empty() {
		return nil, verr
	}

	db := s.db.WithContext(ctx)
	var taken []models.User
	if err := db.Where("email = ? OR username = ?", req.Email, req.Username).Find(&taken).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	for _, u := range taken {
		if u.Email == req.Email {
			verr.Add("email", "A user with that email already exists.")
		}
		if u.Username == req.Username {
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("username", "A user with that username or email already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user as seen by viewerID (nil for anonymous).
func (s *UserService) GetUser(ctx context.Context, viewerID *uint, id uint) (*UserView, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	subscribed, err := subscribedAuthors(ctx, s.db, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, IsSubscribed: subscribed[user.ID]}, nil
}

// ListUsers returns one page of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, viewerID *uint, page Page) ([]UserView, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("id DESC").Limit(page.Size).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := subscribedAuthors(ctx, s.db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = UserView{User: u, IsSubscribed: subscribed[u.ID]}
	}
	return views, total, nil
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	verr := &ValidationError{}
	if err := validation.Struct(req); err != nil {
		verr.Merge(validation.Fields(err))
	}
	if msg := passwordProblem(req.NewPassword); msg != "" && verr.Fields["new_password"] == nil {
		verr.Add("new_password", msg)
	}
	if !verr.Empty() {
		return verr
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err := db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return NewValidationError("current_password", "Invalid password.")
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := db.Model(&user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// passwordProblem returns a message when password is too weak.
func passwordProblem(password string) string {
	if password == "" {
		return ""
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return "This password is entirely numeric."
}

// subscribedAuthors returns which of authorIDs the viewer follows.
func subscribedAuthors(ctx context.Context, db *gorm.DB, viewerID *uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == nil || len(authorIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", *viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
