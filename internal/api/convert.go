package api

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func toTag(t models.Tag) types.Tag {
	return types.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toTags(tags []models.Tag) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTag(t))
	}
	return out
}

func toIngredient(i models.Ingredient) types.Ingredient {
	return types.Ingredient{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func toUser(u models.User, subscribed bool) types.User {
	return types.User{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toRecipe(v service.RecipeView) types.Recipe {
	ingredients := make([]types.RecipeIngredient, 0, len(v.IngredientAmounts))
	for _, ia := range v.IngredientAmounts {
		ingredients = append(ingredients, types.RecipeIngredient{
			ID:              ia.IngredientID,
			Name:            ia.Ingredient.Name,
			MeasurementUnit: ia.Ingredient.MeasurementUnit,
			Amount:          ia.Amount,
		})
	}

	return types.Recipe{
		ID:               v.ID,
		Tags:             toTags(v.Tags),
		Author:           toUser(v.Author, v.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             v.Name,
		Image:            v.Image,
		Text:             v.Text,
		CookingTime:      v.CookingTime,
	}
}

func toShortRecipe(r models.Recipe) types.ShortRecipe {
	return types.ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// toSubscription renders a followed author. The viewer follows every author
// in their own subscription list.
func toSubscription(v service.SubscriptionView) types.Subscription {
	recipes := make([]types.ShortRecipe, 0, len(v.Recipes))
	for _, r := range v.Recipes {
		recipes = append(recipes, toShortRecipe(r))
	}
	return types.Subscription{
		User:         toUser(v.Author, true),
		Recipes:      recipes,
		RecipesCount: v.RecipesCount,
	}
}
