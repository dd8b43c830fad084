package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts and subscriptions
type UserHandler struct {
	userService         service.IUserService
	subscriptionService service.ISubscriptionService
	paginator           Paginator
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.IUserService, subscriptionService service.ISubscriptionService, paginator Paginator) *UserHandler {
	return &UserHandler{
		userService:         userService,
		subscriptionService: subscriptionService,
		paginator:           paginator,
	}
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/", h.Register)
		users.GET("/", h.List)
		users.GET("/me/", middleware.RequireAuth(), h.Me)
		users.POST("/set_password/", middleware.RequireAuth(), h.SetPassword)
		users.GET("/subscriptions/", middleware.RequireAuth(), h.Subscriptions)
		users.GET("/:id/", h.Get)
		users.POST("/:id/subscribe/", middleware.RequireAuth(), h.Subscribe)
		users.DELETE("/:id/subscribe/", middleware.RequireAuth(), h.Unsubscribe)
	}
}

// Register creates an account
func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":      user.Email,
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

// List returns a page of users
func (h *UserHandler) List(c *gin.Context) {
	page := h.paginator.Page(c)
	views, total, err := h.userService.ListUsers(c.Request.Context(), viewerID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.User, 0, len(views))
	for _, v := range views {
		results = append(results, toUser(v.User, v.IsSubscribed))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// Get returns one user's profile
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.userService.GetUser(c.Request.Context(), viewerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(view.User, view.IsSubscribed))
}

// Me returns the current user's profile
func (h *UserHandler) Me(c *gin.Context) {
	id := currentUserID(c)
	view, err := h.userService.GetUser(c.Request.Context(), &id, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(view.User, view.IsSubscribed))
}

// SetPassword changes the current user's password
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), currentUserID(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists the authors the current user follows
func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := h.paginator.Page(c)
	views, total, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), currentUserID(c), page, recipeLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.Subscription, 0, len(views))
	for _, v := range views {
		results = append(results, toSubscription(v))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// Subscribe follows the author in the path
func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.subscriptionService.Subscribe(c.Request.Context(), currentUserID(c), authorID, recipeLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscription(*view))
}

// Unsubscribe stops following the author in the path
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), currentUserID(c), authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipeLimit reads the recipe_limit query parameter. Missing or invalid
// values mean no limit.
func recipeLimit(c *gin.Context) *int {
	n, err := strconv.Atoi(c.Query("recipe_limit"))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
