package types

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest represents the request body for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest represents the request body for changing the current password
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// IngredientAmountRequest references a catalog ingredient and its amount
type IngredientAmountRequest struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=1"`
}

// RecipeRequest represents the request body for creating or updating a recipe.
// Scalar fields are pointers so updates can leave them unchanged; ingredients
// and tags are always replaced.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
	Tags        []uint                    `json:"tags" validate:"required,min=1,dive,required"`
	Image       *string                   `json:"image"`
	Name        *string                   `json:"name" validate:"omitempty,max=200"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time" validate:"omitempty,gte=1"`
}
