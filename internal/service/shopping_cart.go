package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// ShoppingListItem is one aggregated line of the shopping list.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	TotalAmount     int64
}

// ShoppingCartService manages cart entries and builds the shopping list.
type ShoppingCartService struct {
	db *gorm.DB
}

// NewShoppingCartService creates a new ShoppingCartService instance
func NewShoppingCartService(db *gorm.DB) *ShoppingCartService {
	return &ShoppingCartService{db: db}
}

// AddToCart adds one more occurrence of the recipe to the cart. Adding a
// recipe that is already there is allowed and counts again.
func (s *ShoppingCartService) AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecipe(tx, recipeID, &recipe); err != nil {
			return err
		}
		if err := tx.Create(&models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}).Error; err != nil {
			return fmt.Errorf("failed to add to shopping cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// RemoveFromCart removes a single occurrence of the recipe, the most recently
// added one.
func (s *ShoppingCartService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := findRecipe(tx, recipeID, &recipe); err != nil {
			return err
		}

		var entryIDs []uint
		if err := tx.Model(&models.ShoppingCartEntry{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Order("id DESC").Limit(1).
			Pluck("id", &entryIDs).Error; err != nil {
			return fmt.Errorf("failed to find shopping cart entry: %w", err)
		}
		if len(entryIDs) == 0 {
			return ErrNotInShoppingCart
		}

		if err := tx.Delete(&models.ShoppingCartEntry{}, entryIDs[0]).Error; err != nil {
			return fmt.Errorf("failed to remove from shopping cart: %w", err)
		}
		return nil
	})
}

// ShoppingList sums ingredient amounts over every cart entry, grouped by
// ingredient name and unit and ordered by name. A recipe in the cart twice
// contributes its amounts twice.
func (s *ShoppingCartService) ShoppingList(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	db := s.db.WithContext(ctx)

	var entries int64
	if err := db.Model(&models.ShoppingCartEntry{}).Where("user_id = ?", userID).Count(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to count shopping cart entries: %w", err)
	}
	if entries == 0 {
		return nil, ErrEmptyShoppingCart
	}

	var items []ShoppingListItem
	err := db.Table("shopping_cart_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS total_amount").
		Joins("JOIN ingredient_amounts ON ingredient_amounts.recipe_id = shopping_cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}

// FormatShoppingList renders one "<name> - <amount> <unit>" line per item.
func FormatShoppingList(items []ShoppingListItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.Name + " - " + strconv.FormatInt(item.TotalAmount, 10) + " " + item.MeasurementUnit
	}
	return strings.Join(lines, "\n")
}
