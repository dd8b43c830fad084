package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// CatalogService serves the read-only tag and ingredient catalogs.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListTags returns every tag ordered by id.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// ListIngredients returns ingredients ordered by name. A non-empty prefix
// keeps only names starting with it, ignoring case.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where(`search_name LIKE ? ESCAPE '\'`, escapeLike(models.FoldName(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	return &ingredient, nil
}

// SeedCatalog inserts ingredients and tags, skipping names that already
// exist. It returns how many rows of each were inserted.
func (s *CatalogService) SeedCatalog(ctx context.Context, ingredients []models.Ingredient, tags []models.Tag) (int64, int64, error) {
	var addedIngredients, addedTags int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ingredients) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
			if res.Error != nil {
				return fmt.Errorf("failed to seed ingredients: %w", res.Error)
			}
			addedIngredients = res.RowsAffected
		}
		if len(tags) > 0 {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&tags, 100)
			if res.Error != nil {
				return fmt.Errorf("failed to seed tags: %w", res.Error)
			}
			addedTags = res.RowsAffected
		}
		return nil
	})
	return addedIngredients, addedTags, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
