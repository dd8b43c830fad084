package service

import (
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// pngDataURI is a 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type kitchen struct {
	db        *gorm.DB
	author    *models.User
	reader    *models.User
	sugar     *models.Ingredient
	flour     *models.Ingredient
	eggs      *models.Ingredient
	breakfast *models.Tag
	dinner    *models.Tag
}

func newKitchen(t *testing.T) *kitchen {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	return &kitchen{
		db:        db,
		author:    testhelpers.CreateUser(t, db, "chef"),
		reader:    testhelpers.CreateUser(t, db, "reader"),
		sugar:     testhelpers.CreateIngredient(t, db, "Sugar", "g"),
		flour:     testhelpers.CreateIngredient(t, db, "Flour", "g"),
		eggs:      testhelpers.CreateIngredient(t, db, "Eggs", "pcs"),
		breakfast: testhelpers.CreateTag(t, db, "Breakfast", "breakfast"),
		dinner:    testhelpers.CreateTag(t, db, "Dinner", "dinner"),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func validRecipeRequest(k *kitchen) *types.RecipeRequest {
	return &types.RecipeRequest{
		Ingredients: []types.IngredientAmountRequest{
			{ID: k.sugar.ID, Amount: 100},
			{ID: k.flour.ID, Amount: 250},
		},
		Tags:        []uint{k.breakfast.ID},
		Image:       ptr(pngDataURI),
		Name:        ptr("Pancakes"),
		Text:        ptr("Mix and fry."),
		CookingTime: ptr(15),
	}
}
