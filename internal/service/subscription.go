package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// SubscriptionView is a followed author with their newest recipes.
// RecipesCount counts all of the author's recipes, not only those listed.
type SubscriptionView struct {
	Author       models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// SubscriptionService manages who follows whom.
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new SubscriptionService instance
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe makes userID follow authorID. recipeLimit, when set, caps the
// number of recipes in the returned view.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipeLimit *int) (*SubscriptionView, error) {
	var author models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findUser(tx, authorID, &author); err != nil {
			return err
		}
		if userID == authorID {
			return ErrSelfSubscription
		}

		var count int64
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND author_id = ?", userID, authorID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check subscription: %w", err)
		}
		if count > 0 {
			return ErrAlreadySubscribed
		}

		if err := tx.Create(&models.Subscription{UserID: userID, AuthorID: authorID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubscribed
			}
			if errors.Is(err, models.ErrSelfSubscription) {
				return ErrSelfSubscription
			}
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	views, err := s.buildViews(ctx, []models.User{author}, recipeLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe makes userID stop following authorID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := findUser(tx, authorID, &author); err != nil {
			return err
		}
		if userID == authorID {
			return ErrSelfSubscription
		}

		res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Subscription{})
		if res.Error != nil {
			return fmt.Errorf("failed to unsubscribe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotSubscribed
		}
		return nil
	})
}

// ListSubscriptions returns one page of the authors userID follows.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, userID uint, page Page, recipeLimit *int) ([]SubscriptionView, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?)", s.db.Model(&models.Subscription{}).Select("author_id").Where("user_id = ?", userID))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := query.Order("id DESC").Limit(page.Size).Offset(page.Offset()).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views, err := s.buildViews(ctx, authors, recipeLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// buildViews loads recipes and recipe counts for all authors at once.
func (s *SubscriptionService) buildViews(ctx context.Context, authors []models.User, recipeLimit *int) ([]SubscriptionView, error) {
	views := make([]SubscriptionView, len(authors))
	if len(authors) == 0 {
		return views, nil
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	db := s.db.WithContext(ctx)

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	if err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Total
	}

	var recipes []models.Recipe
	if err := db.Where("author_id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	recipesByAuthor := make(map[uint][]models.Recipe, len(authors))
	for _, r := range recipes {
		if recipeLimit != nil && len(recipesByAuthor[r.AuthorID]) >= *recipeLimit {
			continue
		}
		recipesByAuthor[r.AuthorID] = append(recipesByAuthor[r.AuthorID], r)
	}

	for i, a := range authors {
		views[i] = SubscriptionView{
			Author:       a,
			Recipes:      recipesByAuthor[a.ID],
			RecipesCount: countByAuthor[a.ID],
		}
	}
	return views, nil
}

func findUser(db *gorm.DB, id uint, user *models.User) error {
	err := db.First(user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}
