package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListFilename is the attachment name of the downloaded shopping list.
const ShoppingListFilename = "shopping_list.txt"

// RecipeHandler serves recipes, favorites and the shopping cart
type RecipeHandler struct {
	recipeService   service.IRecipeService
	favoriteService service.IFavoriteService
	cartService     service.IShoppingCartService
	paginator       Paginator
	createLimiter   *middleware.RateLimiter
}

// NewRecipeHandler creates a new RecipeHandler. createLimiter may be nil to
// leave recipe creation unthrottled.
func NewRecipeHandler(
	recipeService service.IRecipeService,
	favoriteService service.IFavoriteService,
	cartService service.IShoppingCartService,
	paginator Paginator,
	createLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		favoriteService: favoriteService,
		cartService:     cartService,
		paginator:       paginator,
		createLimiter:   createLimiter,
	}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	create := []gin.HandlerFunc{middleware.RequireAuth()}
	if h.createLimiter != nil {
		create = append(create, h.createLimiter.RateLimitMiddleware())
	}
	create = append(create, h.Create)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", h.List)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", middleware.RequireAuth(), h.DownloadShoppingCart)
		recipes.GET("/:id/", h.Get)
		recipes.PATCH("/:id/", middleware.RequireAuth(), h.Update)
		recipes.PUT("/:id/", middleware.RequireAuth(), h.Update)
		recipes.DELETE("/:id/", middleware.RequireAuth(), h.Delete)
		recipes.POST("/:id/favorite/", middleware.RequireAuth(), h.AddFavorite)
		recipes.DELETE("/:id/favorite/", middleware.RequireAuth(), h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", middleware.RequireAuth(), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", middleware.RequireAuth(), h.RemoveFromCart)
	}
}

// List returns a page of recipes, newest first. Supported filters are
// author, tags (repeatable slug), is_favorited and is_in_shopping_cart.
func (h *RecipeHandler) List(c *gin.Context) {
	filter, err := parseRecipeFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page := h.paginator.Page(c)
	views, total, err := h.recipeService.ListRecipes(c.Request.Context(), viewerID(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.Recipe, 0, len(views))
	for _, v := range views {
		results = append(results, toRecipe(v))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.recipeService.GetRecipe(c.Request.Context(), viewerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipe(*view))
}

// Create publishes a recipe authored by the current user
func (h *RecipeHandler) Create(c *gin.Context) {
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipeService.CreateRecipe(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipe(*view))
}

// Update replaces a recipe's ingredients and tags and any scalar fields
// present in the body. Only the author may update.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipeService.UpdateRecipe(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipe(*view))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.favoriteService.AddFavorite(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShortRecipe(*recipe))
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddToCart puts one more copy of the recipe in the cart
func (h *RecipeHandler) AddToCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.cartService.AddToCart(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShortRecipe(*recipe))
}

// RemoveFromCart takes one copy of the recipe out of the cart
func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.cartService.RemoveFromCart(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated shopping list as a text file
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.cartService.ShoppingList(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.FormatShoppingList(items)))
}

func parseRecipeFilter(c *gin.Context) (service.RecipeFilter, error) {
	filter := service.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			return filter, service.NewValidationError("author", "Select a valid choice. That choice is not one of the available choices.")
		}
		author := uint(id)
		filter.AuthorID = &author
	}
	return filter, nil
}

func queryFlag(c *gin.Context, key string) bool {
	switch c.Query(key) {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}
