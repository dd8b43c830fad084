package models

import (
	"time"
)

// Recipe is authored by a user and lists ingredient amounts and tags.
type Recipe struct {
	ID                uint               `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time          `gorm:"index" json:"-"`
	UpdatedAt         time.Time          `json:"-"`
	AuthorID          uint               `gorm:"not null;index" json:"-"`
	Author            User               `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Name              string             `gorm:"size:200;not null" json:"name"`
	Image             string             `gorm:"size:255;not null" json:"image"`
	Text              string             `gorm:"type:text;not null" json:"text"`
	CookingTime       int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	IngredientAmounts []IngredientAmount `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	Tags              []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
}

// IngredientAmount is the quantity of one ingredient in one recipe.
type IngredientAmount struct {
	ID           uint       `gorm:"primarykey" json:"-"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_ingredient_amounts_recipe_ingredient" json:"-"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_ingredient_amounts_recipe_ingredient" json:"id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Amount       int        `gorm:"not null;check:chk_ingredient_amounts_amount,amount >= 1" json:"amount"`
}

// RecipeTag is the join row between recipes and tags.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey"`
}
