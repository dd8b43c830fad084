package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSelfSubscription is returned when a user tries to follow themselves.
var ErrSelfSubscription = errors.New("cannot subscribe to yourself")

// Favorite marks a recipe as favored by a user. At most one per pair.
type Favorite struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorites_user_recipe"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorites_user_recipe;index"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

// ShoppingCartEntry is one occurrence of a recipe in a user's cart. The same
// recipe may appear several times and every row counts.
type ShoppingCartEntry struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	RecipeID  uint   `gorm:"not null;index"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

// Subscription records that User follows Author.
type Subscription struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_subscriptions_user_author;check:chk_subscriptions_not_self,user_id <> author_id"`
	User      User `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_subscriptions_user_author;index"`
	Author    User `gorm:"constraint:OnDelete:CASCADE"`
}

func (s *Subscription) BeforeSave(tx *gorm.DB) error {
	if s.UserID == s.AuthorID {
		return ErrSelfSubscription
	}
	return nil
}
