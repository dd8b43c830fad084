//go:build integration

// Package integration runs the full HTTP stack against PostgreSQL and Redis
// containers.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type stack struct {
	handler http.Handler
	db      *gorm.DB
	images  *testhelpers.MemoryImageStore
}

func newStack(t *testing.T) *stack {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping integration test")
	}

	db := testhelpers.SetupPostgresDB(t)
	redisClient := setupRedis(t)
	images := testhelpers.NewMemoryImageStore()

	cfg := &config.Config{
		Environment:         config.Test,
		ServerHost:          "127.0.0.1",
		ServerPort:          "0",
		JWTSecret:           "integration-secret",
		TokenTTL:            time.Hour,
		PageSize:            6,
		MaxPageSize:         100,
		StorageBackend:      "s3",
		RecipeCreationLimit: 2,
	}
	srv := server.New(cfg, db, redisClient, images)

	return &stack{handler: srv.Handler(), db: db, images: images}
}

func (s *stack) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *stack) login(t *testing.T, user *models.User) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": testhelpers.TestPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AuthToken
}

// pngDataURI is a 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestRecipeLifecycle(t *testing.T) {
	s := newStack(t)
	author := testhelpers.CreateUser(t, s.db, "chef")
	reader := testhelpers.CreateUser(t, s.db, "reader")
	sugar := testhelpers.CreateIngredient(t, s.db, "Сахар", "г")
	flour := testhelpers.CreateIngredient(t, s.db, "Мука", "г")
	tag := testhelpers.CreateTag(t, s.db, "Завтрак", "breakfast")
	authorToken := s.login(t, author)
	readerToken := s.login(t, reader)

	w := s.do(t, http.MethodGet, "/api/ingredients/?name=%D1%81%D0%B0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []types.Ingredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, sugar.ID, found[0].ID)

	w = s.do(t, http.MethodPost, "/api/recipes/", authorToken, map[string]interface{}{
		"ingredients":  []map[string]interface{}{{"id": sugar.ID, "amount": 100}, {"id": flour.ID, "amount": 200}},
		"tags":         []uint{tag.ID},
		"image":        pngDataURI,
		"name":         "Блины",
		"text":         "Смешать и пожарить.",
		"cooking_time": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recipe types.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))
	assert.Equal(t, 1, s.images.Len())

	cartPath := fmt.Sprintf("/api/recipes/%d/shopping_cart/", recipe.ID)
	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, cartPath, readerToken, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/recipes/download_shopping_cart/", readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Мука - 400 г\nСахар - 200 г", w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", author.ID), readerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", recipe.ID), authorToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, 0, s.images.Len())

	var cartRows int64
	require.NoError(t, s.db.Model(&models.ShoppingCartEntry{}).Count(&cartRows).Error)
	assert.Zero(t, cartRows)
}

func TestLogoutRevokesTokenInRedis(t *testing.T) {
	s := newStack(t)
	user := testhelpers.CreateUser(t, s.db, "chef")
	token := s.login(t, user)

	w := s.do(t, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/token/logout/", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeCreationIsRateLimited(t *testing.T) {
	s := newStack(t)
	user := testhelpers.CreateUser(t, s.db, "chef")
	sugar := testhelpers.CreateIngredient(t, s.db, "Sugar", "g")
	tag := testhelpers.CreateTag(t, s.db, "Breakfast", "breakfast")
	token := s.login(t, user)

	body := map[string]interface{}{
		"ingredients":  []map[string]interface{}{{"id": sugar.ID, "amount": 1}},
		"tags":         []uint{tag.ID},
		"image":        pngDataURI,
		"name":         "Toast",
		"text":         "Toast it.",
		"cooking_time": 2,
	}

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/recipes/", token, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodPost, "/api/recipes/", token, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
