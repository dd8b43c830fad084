// Package testhelpers provides databases, fixtures and fakes shared by tests.
package testhelpers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct-horse-battery"

// CreateUser inserts a user whose email is derived from username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Tester",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateIngredient inserts a catalog ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ingredient
}

// CreateTag inserts a tag. The color is derived from the slug's position in
// the test so that it stays unique.
func CreateTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()

	var count int64
	db.Model(&models.Tag{}).Count(&count)

	tag := &models.Tag{Name: name, Slug: slug, Color: fmt.Sprintf("#%06X", 0x10+count)}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

// CreateRecipe inserts a recipe by author with the given ingredient amounts
// (ingredient to amount) and tags.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, amounts map[*models.Ingredient]int, tags ...*models.Tag) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/images/" + strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".png",
		Text:        "Cook " + name,
		CookingTime: 10,
	}
	for ingredient, amount := range amounts {
		recipe.IngredientAmounts = append(recipe.IngredientAmounts, models.IngredientAmount{
			IngredientID: ingredient.ID,
			Amount:       amount,
		})
	}
	for _, tag := range tags {
		recipe.Tags = append(recipe.Tags, *tag)
	}

	if err := db.Omit("Tags.*").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// MemoryImageStore keeps uploaded images in memory.
type MemoryImageStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	// FailSave makes Save return an error.
	FailSave bool
}

// NewMemoryImageStore creates an empty store.
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{Objects: make(map[string][]byte)}
}

// Save stores data under key and returns its URL.
func (s *MemoryImageStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave {
		return "", fmt.Errorf("image store unavailable")
	}
	url := "/media/" + key
	s.Objects[url] = data
	return url, nil
}

// Delete removes the object behind url.
func (s *MemoryImageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.Objects, url)
	return nil
}

// Len reports the number of stored objects.
func (s *MemoryImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}
