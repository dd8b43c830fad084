package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// FavoriteService adds recipes to and removes them from a user's favorites.
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService creates a new FavoriteService instance
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// AddFavorite marks the recipe as a favorite of userID and returns it.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecipe(tx, recipeID, &recipe); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check favorite: %w", err)
		}
		if count > 0 {
			return ErrAlreadyFavorited
		}

		if err := tx.Create(&models.Favorite{UserID: userID, RecipeID: recipeID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyFavorited
			}
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// RemoveFavorite unmarks the recipe.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := findRecipe(tx, recipeID, &recipe); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&models.Favorite{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove favorite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFavorited
		}
		return nil
	})
}

// findRecipe loads the bare recipe row or returns ErrRecipeNotFound.
func findRecipe(db *gorm.DB, id uint, recipe *models.Recipe) error {
	err := db.First(recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecipeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}
	return nil
}
