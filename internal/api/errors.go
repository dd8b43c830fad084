package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

var (
	conflictErrors = []error{
		service.ErrAlreadyFavorited,
		service.ErrNotFavorited,
		service.ErrNotInShoppingCart,
		service.ErrEmptyShoppingCart,
		service.ErrAlreadySubscribed,
		service.ErrNotSubscribed,
		service.ErrSelfSubscription,
	}
	notFoundErrors = []error{
		service.ErrRecipeNotFound,
		service.ErrUserNotFound,
		service.ErrTagNotFound,
		service.ErrIngredientNotFound,
	}
)

// respondError writes the JSON error response matching err.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, verr.Fields)
		return
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": target.Error()})
			return
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"detail": target.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
	default:
		logging.FromContext(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

// bindJSON decodes the request body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}
