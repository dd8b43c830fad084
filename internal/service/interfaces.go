package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, req *types.LoginRequest) (string, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
}

// IUserService defines the interface for account operations
type IUserService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	GetUser(ctx context.Context, viewerID *uint, id uint) (*UserView, error)
	ListUsers(ctx context.Context, viewerID *uint, page Page) ([]UserView, int64, error)
	SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error
}

// ISubscriptionService defines the interface for following authors
type ISubscriptionService interface {
	Subscribe(ctx context.Context, userID, authorID uint, recipeLimit *int) (*SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	ListSubscriptions(ctx context.Context, userID uint, page Page, recipeLimit *int) ([]SubscriptionView, int64, error)
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, viewerID *uint, filter RecipeFilter, page Page) ([]RecipeView, int64, error)
	GetRecipe(ctx context.Context, viewerID *uint, id uint) (*RecipeView, error)
	CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*RecipeView, error)
	UpdateRecipe(ctx context.Context, userID, recipeID uint, req *types.RecipeRequest) (*RecipeView, error)
	DeleteRecipe(ctx context.Context, userID, recipeID uint) error
}

// IFavoriteService defines the interface for favorite toggles
type IFavoriteService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
}

// IShoppingCartService defines the interface for the shopping cart
type IShoppingCartService interface {
	AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) ([]ShoppingListItem, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ ISubscriptionService = (*SubscriptionService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IFavoriteService     = (*FavoriteService)(nil)
	_ IShoppingCartService = (*ShoppingCartService)(nil)

	_ ImageStore = (*LocalImageStore)(nil)
	_ ImageStore = (*S3ImageStore)(nil)
	_ TokenStore = (*RedisTokenStore)(nil)
	_ TokenStore = (*MemoryTokenStore)(nil)
)
