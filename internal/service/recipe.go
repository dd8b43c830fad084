package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// RecipeView is a recipe with the viewer-dependent flags filled in.
type RecipeView struct {
	*models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeFilter narrows ListRecipes. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID *uint
	// TagSlugs keeps recipes carrying any of the tags.
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// ListRecipes returns one page of recipes, newest first, as seen by viewerID
// (nil for anonymous). Anonymous viewers asking for favorites or cart
// contents get an empty page.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID *uint, filter RecipeFilter, page Page) ([]RecipeView, int64, error) {
	if viewerID == nil && (filter.IsFavorited || filter.IsInShoppingCart) {
		return []RecipeView{}, 0, nil
	}

	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.IsFavorited {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *viewerID))
	}
	if filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.ShoppingCartEntry{}).Select("recipe_id").Where("user_id = ?", *viewerID))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withDetails(query).
		Order("recipes.created_at DESC, recipes.id DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.decorate(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetRecipe returns a single recipe as seen by viewerID.
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID *uint, id uint) (*RecipeView, error) {
	var recipe models.Recipe
	if err := findRecipe(withDetails(s.db.WithContext(ctx)), id, &recipe); err != nil {
		return nil, err
	}

	views, err := s.decorate(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CreateRecipe validates req, stores its image and writes the recipe with
// its ingredient amounts and tags in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*RecipeView, error) {
	if err := s.validate(ctx, req, true); err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, *req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(*req.Name),
		Image:       imageURL,
		Text:        *req.Text,
		CookingTime: *req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceComponents(tx, recipe.ID, req)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}

	log.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("Recipe created")
	return s.GetRecipe(ctx, &authorID, recipe.ID)
}

// UpdateRecipe replaces the provided scalar fields and, always, the
// ingredient amounts and tags. Only the author may update a recipe.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID uint, req *types.RecipeRequest) (*RecipeView, error) {
	var recipe models.Recipe
	if err := findRecipe(s.db.WithContext(ctx), recipeID, &recipe); err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	if err := s.validate(ctx, req, false); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = *req.CookingTime
	}

	var newImage string
	if req.Image != nil {
		url, err := s.storeImage(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		newImage = url
		updates["image"] = url
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		return replaceComponents(tx, recipe.ID, req)
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, err
	}
	if newImage != "" {
		s.discardImage(ctx, recipe.Image)
	}

	return s.GetRecipe(ctx, &userID, recipe.ID)
}

// DeleteRecipe removes the recipe and everything that references it.
// Only the author may delete a recipe.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID uint) error {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRecipe(tx, recipeID, &recipe); err != nil {
			return err
		}
		if recipe.AuthorID != userID {
			return ErrForbidden
		}

		for _, dependent := range []interface{}{
			&models.Favorite{},
			&models.ShoppingCartEntry{},
			&models.IngredientAmount{},
			&models.RecipeTag{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete recipe dependents: %w", err)
			}
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	return nil
}

// validate checks req phase by phase and reports the first failing phase:
// required fields, then referenced ids, then duplicate ingredients, then
// duplicate tags. Creating additionally requires every scalar field.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeRequest, creating bool) error {
	verr := &ValidationError{}
	if err := validation.Struct(req); err != nil {
		verr.Merge(validation.Fields(err))
	}
	requireText(verr, "name", req.Name, creating)
	requireText(verr, "text", req.Text, creating)
	requireText(verr, "image", req.Image, creating)
	if creating && req.CookingTime == nil && verr.Fields["cooking_time"] == nil {
		verr.Add("cooking_time", "This field is required.")
	}
	if err := verr.errOrNil(); err != nil {
		return err
	}

	ingredientIDs := make([]uint, len(req.Ingredients))
	for i, item := range req.Ingredients {
		ingredientIDs[i] = item.ID
	}
	if err := s.checkExist(ctx, &models.Ingredient{}, "ingredients", ingredientIDs, verr); err != nil {
		return err
	}
	if err := s.checkExist(ctx, &models.Tag{}, "tags", req.Tags, verr); err != nil {
		return err
	}
	if err := verr.errOrNil(); err != nil {
		return err
	}

	if hasDuplicates(ingredientIDs) {
		return NewValidationError("ingredients", "Ingredients must not repeat.")
	}
	if hasDuplicates(req.Tags) {
		return NewValidationError("tags", "Tags must not repeat.")
	}
	return nil
}

// checkExist records a field error for every id in ids without a row in model's table.
func (s *RecipeService) checkExist(ctx context.Context, model interface{}, field string, ids []uint, verr *ValidationError) error {
	var found []uint
	if err := s.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", field, err)
	}

	known := make(map[uint]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	reported := make(map[uint]bool)
	for _, id := range ids {
		if !known[id] && !reported[id] {
			reported[id] = true
			verr.Add(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}

func requireText(verr *ValidationError, field string, value *string, required bool) {
	if verr.Fields[field] != nil {
		return
	}
	switch {
	case value == nil && required:
		verr.Add(field, "This field is required.")
	case value != nil && strings.TrimSpace(*value) == "":
		verr.Add(field, "This field may not be blank.")
	}
}

func hasDuplicates(ids []uint) bool {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func (s *RecipeService) storeImage(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	url, err := s.images.Save(ctx, NewImageKey(img.Extension), img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return url, nil
}

// discardImage deletes an image that is no longer referenced. Failures are
// logged and otherwise ignored.
func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("Failed to delete recipe image")
	}
}

// replaceComponents swaps the recipe's ingredient amounts and tag links for
// those in req.
func replaceComponents(tx *gorm.DB, recipeID uint, req *types.RecipeRequest) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredient amounts: %w", err)
	}
	amounts := make([]models.IngredientAmount, len(req.Ingredients))
	for i, item := range req.Ingredients {
		amounts[i] = models.IngredientAmount{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit("Ingredient").Create(&amounts).Error; err != nil {
		return fmt.Errorf("failed to save ingredient amounts: %w", err)
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	links := make([]models.RecipeTag, len(req.Tags))
	for i, tagID := range req.Tags {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: tagID}
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to save recipe tags: %w", err)
	}
	return nil
}

// withDetails preloads everything the full recipe representation shows.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("IngredientAmounts", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_amounts.ingredient_id") }).
		Preload("IngredientAmounts.Ingredient")
}

// decorate computes the viewer flags for a page of recipes with one query
// per relationship.
func (s *RecipeService) decorate(ctx context.Context, viewerID *uint, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i] = RecipeView{Recipe: &recipes[i]}
	}
	if viewerID == nil || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	db := s.db.WithContext(ctx)

	var favorited []uint
	if err := db.Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Pluck("recipe_id", &favorited).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	var inCart []uint
	if err := db.Model(&models.ShoppingCartEntry{}).
		Distinct("recipe_id").
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Pluck("recipe_id", &inCart).Error; err != nil {
		return nil, fmt.Errorf("failed to load shopping cart: %w", err)
	}

	subscribed, err := subscribedAuthors(ctx, s.db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	favSet := toSet(favorited)
	cartSet := toSet(inCart)
	for i := range views {
		views[i].IsFavorited = favSet[views[i].ID]
		views[i].IsInShoppingCart = cartSet[views[i].ID]
		views[i].AuthorSubscribed = subscribed[views[i].AuthorID]
	}
	return views, nil
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
