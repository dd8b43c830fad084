package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestCreateRecipe(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	images := testhelpers.NewMemoryImageStore()
	svc := NewRecipeService(k.db, images)

	req := validRecipeRequest(k)
	req.Tags = []uint{k.dinner.ID, k.breakfast.ID}

	view, err := svc.CreateRecipe(ctx, k.author.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", view.Name)
	assert.Equal(t, 15, view.CookingTime)
	assert.Equal(t, k.author.ID, view.Author.ID)
	assert.Equal(t, 1, images.Len())
	assert.Contains(t, view.Image, "recipes/images/")
	assert.Regexp(t, `\.png$`, view.Image)

	require.Len(t, view.IngredientAmounts, 2)
	assert.Equal(t, k.sugar.ID, view.IngredientAmounts[0].IngredientID)
	assert.Equal(t, "Sugar", view.IngredientAmounts[0].Ingredient.Name)
	assert.Equal(t, 100, view.IngredientAmounts[0].Amount)

	require.Len(t, view.Tags, 2)
	assert.Equal(t, k.breakfast.ID, view.Tags[0].ID)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
}

func TestCreateRecipeValidationOrder(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*types.RecipeRequest)
		field  string
		others []string
	}{
		{
			name: "missing ingredients wins over unknown tag",
			mutate: func(r *types.RecipeRequest) {
				r.Ingredients = nil
				r.Tags = []uint{999}
			},
			field:  "ingredients",
			others: []string{"tags"},
		},
		{
			name:   "amount below one",
			mutate: func(r *types.RecipeRequest) { r.Ingredients[0].Amount = 0 },
			field:  "ingredients",
		},
		{
			name:   "empty tags",
			mutate: func(r *types.RecipeRequest) { r.Tags = []uint{} },
			field:  "tags",
		},
		{
			name:   "missing image",
			mutate: func(r *types.RecipeRequest) { r.Image = nil },
			field:  "image",
		},
		{
			name:   "blank name",
			mutate: func(r *types.RecipeRequest) { r.Name = ptr("  ") },
			field:  "name",
		},
		{
			name:   "zero cooking time",
			mutate: func(r *types.RecipeRequest) { r.CookingTime = ptr(0) },
			field:  "cooking_time",
		},
		{
			name: "unknown ingredient wins over duplicates",
			mutate: func(r *types.RecipeRequest) {
				r.Ingredients = append(r.Ingredients, types.IngredientAmountRequest{ID: 999, Amount: 1}, r.Ingredients[0])
			},
			field: "ingredients",
		},
		{
			name: "duplicate ingredients win over duplicate tags",
			mutate: func(r *types.RecipeRequest) {
				r.Ingredients = append(r.Ingredients, r.Ingredients[0])
				r.Tags = []uint{k.breakfast.ID, k.breakfast.ID}
			},
			field:  "ingredients",
			others: []string{"tags"},
		},
		{
			name:   "duplicate tags",
			mutate: func(r *types.RecipeRequest) { r.Tags = []uint{k.dinner.ID, k.dinner.ID} },
			field:  "tags",
		},
		{
			name:   "not an image",
			mutate: func(r *types.RecipeRequest) { r.Image = ptr("data:image/png;base64,aGVsbG8gd29ybGQ=") },
			field:  "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := testhelpers.NewMemoryImageStore()
			svc := NewRecipeService(k.db, images)

			req := validRecipeRequest(k)
			tt.mutate(req)

			_, err := svc.CreateRecipe(ctx, k.author.ID, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			for _, other := range tt.others {
				assert.NotContains(t, verr.Fields, other)
			}

			assert.Zero(t, images.Len(), "no image is stored for invalid input")
			var count int64
			k.db.Model(&models.Recipe{}).Count(&count)
			assert.Zero(t, count, "no recipe is written for invalid input")
		})
	}
}

func TestCreateRecipeImageStoreFailure(t *testing.T) {
	k := newKitchen(t)
	images := testhelpers.NewMemoryImageStore()
	images.FailSave = true
	svc := NewRecipeService(k.db, images)

	_, err := svc.CreateRecipe(context.Background(), k.author.ID, validRecipeRequest(k))
	require.Error(t, err)

	var count int64
	k.db.Model(&models.Recipe{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateRecipeRollsBackAndDiscardsImage(t *testing.T) {
	k := newKitchen(t)
	images := testhelpers.NewMemoryImageStore()
	svc := NewRecipeService(k.db, images)

	// An author that does not exist violates the foreign key inside the transaction.
	_, err := svc.CreateRecipe(context.Background(), 31337, validRecipeRequest(k))
	require.Error(t, err)

	assert.Zero(t, images.Len())
	var count int64
	k.db.Model(&models.IngredientAmount{}).Count(&count)
	assert.Zero(t, count)
}

func TestUpdateRecipe(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	images := testhelpers.NewMemoryImageStore()
	svc := NewRecipeService(k.db, images)

	created, err := svc.CreateRecipe(ctx, k.author.ID, validRecipeRequest(k))
	require.NoError(t, err)
	oldImage := created.Image

	update := &types.RecipeRequest{
		Ingredients: []types.IngredientAmountRequest{{ID: k.eggs.ID, Amount: 4}},
		Tags:        []uint{k.dinner.ID},
		Name:        ptr("Omelette"),
	}

	_, err = svc.UpdateRecipe(ctx, k.reader.ID, created.ID, update)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateRecipe(ctx, k.author.ID, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", updated.Name)
	assert.Equal(t, "Mix and fry.", updated.Text)
	assert.Equal(t, 15, updated.CookingTime)
	assert.Equal(t, oldImage, updated.Image)
	require.Len(t, updated.IngredientAmounts, 1)
	assert.Equal(t, k.eggs.ID, updated.IngredientAmounts[0].IngredientID)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, k.dinner.ID, updated.Tags[0].ID)

	// A new image replaces and discards the old one.
	update.Image = ptr(pngDataURI)
	updated, err = svc.UpdateRecipe(ctx, k.author.ID, created.ID, update)
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, updated.Image)
	assert.Equal(t, 1, images.Len())

	// Ingredients are required on update too.
	update.Ingredients = nil
	_, err = svc.UpdateRecipe(ctx, k.author.ID, created.ID, update)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ingredients")

	_, err = svc.UpdateRecipe(ctx, k.author.ID, 9999, update)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	images := testhelpers.NewMemoryImageStore()
	svc := NewRecipeService(k.db, images)

	created, err := svc.CreateRecipe(ctx, k.author.ID, validRecipeRequest(k))
	require.NoError(t, err)
	_, err = NewFavoriteService(k.db).AddFavorite(ctx, k.reader.ID, created.ID)
	require.NoError(t, err)
	_, err = NewShoppingCartService(k.db).AddToCart(ctx, k.reader.ID, created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRecipe(ctx, k.reader.ID, created.ID), ErrForbidden)
	require.NoError(t, svc.DeleteRecipe(ctx, k.author.ID, created.ID))

	for _, model := range []interface{}{&models.Recipe{}, &models.IngredientAmount{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCartEntry{}} {
		var count int64
		k.db.Model(model).Count(&count)
		assert.Zero(t, count, "%T rows remain", model)
	}
	assert.Zero(t, images.Len())

	_, err = svc.GetRecipe(ctx, nil, created.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	svc := NewRecipeService(k.db, testhelpers.NewMemoryImageStore())

	both := testhelpers.CreateRecipe(t, k.db, k.author, "Both", map[*models.Ingredient]int{k.sugar: 1}, k.breakfast, k.dinner)
	morning := testhelpers.CreateRecipe(t, k.db, k.author, "Morning", map[*models.Ingredient]int{k.eggs: 2}, k.breakfast)
	evening := testhelpers.CreateRecipe(t, k.db, k.reader, "Evening", map[*models.Ingredient]int{k.flour: 3}, k.dinner)
	for i, r := range []*models.Recipe{both, morning, evening} {
		k.db.Model(r).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}

	names := func(views []RecipeView) []string {
		out := make([]string, len(views))
		for i, v := range views {
			out[i] = v.Name
		}
		return out
	}
	page := Page{Number: 1, Size: 10}

	views, total, err := svc.ListRecipes(ctx, nil, RecipeFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Evening", "Morning", "Both"}, names(views))

	// Any-of tag match without duplicates.
	views, total, err = svc.ListRecipes(ctx, nil, RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, views, 3)

	views, _, err = svc.ListRecipes(ctx, nil, RecipeFilter{TagSlugs: []string{"breakfast"}}, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Morning", "Both"}, names(views))

	views, _, err = svc.ListRecipes(ctx, nil, RecipeFilter{AuthorID: &k.reader.ID}, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Evening"}, names(views))

	// Anonymous viewers asking for favorites get an empty page.
	views, total, err = svc.ListRecipes(ctx, nil, RecipeFilter{IsFavorited: true}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)

	_, err = NewFavoriteService(k.db).AddFavorite(ctx, k.reader.ID, morning.ID)
	require.NoError(t, err)
	cart := NewShoppingCartService(k.db)
	for i := 0; i < 2; i++ {
		_, err = cart.AddToCart(ctx, k.reader.ID, both.ID)
		require.NoError(t, err)
	}

	views, _, err = svc.ListRecipes(ctx, &k.reader.ID, RecipeFilter{IsFavorited: true}, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Morning"}, names(views))
	assert.True(t, views[0].IsFavorited)

	views, total, err = svc.ListRecipes(ctx, &k.reader.ID, RecipeFilter{IsInShoppingCart: true}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"Both"}, names(views))
	assert.True(t, views[0].IsInShoppingCart)

	// Pagination.
	views, total, err = svc.ListRecipes(ctx, nil, RecipeFilter{}, Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Both"}, names(views))
}

func TestGetRecipeViewerFlags(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	svc := NewRecipeService(k.db, testhelpers.NewMemoryImageStore())

	recipe := testhelpers.CreateRecipe(t, k.db, k.author, "Stew", map[*models.Ingredient]int{k.flour: 30}, k.dinner)
	_, err := NewSubscriptionService(k.db).Subscribe(ctx, k.reader.ID, k.author.ID, nil)
	require.NoError(t, err)
	_, err = NewShoppingCartService(k.db).AddToCart(ctx, k.reader.ID, recipe.ID)
	require.NoError(t, err)

	view, err := svc.GetRecipe(ctx, &k.reader.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.AuthorSubscribed)
	assert.True(t, view.IsInShoppingCart)
	assert.False(t, view.IsFavorited)

	view, err = svc.GetRecipe(ctx, nil, recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.AuthorSubscribed)
	assert.False(t, view.IsInShoppingCart)
}
