package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
)

// viewerID returns the current user's id, or nil for anonymous requests.
func viewerID(c *gin.Context) *uint {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}

// currentUserID returns the id of the authenticated user. Routes using it
// are guarded by middleware.RequireAuth.
func currentUserID(c *gin.Context) uint {
	id, _ := middleware.UserID(c)
	return id
}

// pathID parses the ":id" path parameter, answering 404 when it is not a
// positive integer.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respondNotFound(c)
		return 0, false
	}
	return uint(id), true
}
