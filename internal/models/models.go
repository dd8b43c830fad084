// Package models holds the gorm models persisted by the service layer.
package models

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&IngredientAmount{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartEntry{},
		&Subscription{},
	}
}
