package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

// pngDataURI is a 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
	images *testhelpers.MemoryImageStore
}

// newTestServer wires every handler to real services over an in-memory
// sqlite database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	images := testhelpers.NewMemoryImageStore()
	auth := service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryTokenStore())
	paginator := NewPaginator(6, 100)

	router := newRouter(auth,
		NewAuthHandler(auth),
		NewUserHandler(service.NewUserService(db), service.NewSubscriptionService(db), paginator),
		NewCatalogHandler(service.NewCatalogService(db)),
		NewRecipeHandler(
			service.NewRecipeService(db, images),
			service.NewFavoriteService(db),
			service.NewShoppingCartService(db),
			paginator,
			nil,
		),
	)

	return &testServer{router: router, db: db, auth: auth, images: images}
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newRouter(validator middleware.TokenValidator, handlers ...routeRegistrar) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.Authenticate(validator))
	api := router.Group("/api")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return router
}

func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.router, method, path, token, body)
}

func serve(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func recipeBody(ingredients []map[string]interface{}, tags []uint) map[string]interface{} {
	return map[string]interface{}{
		"ingredients":  ingredients,
		"tags":         tags,
		"image":        pngDataURI,
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"cooking_time": 15,
	}
}

func newContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}
