// Package mocks provides testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MockUserService is a mock implementation of the user service
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, viewerID *uint, id uint) (*service.UserView, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserView), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, viewerID *uint, page service.Page) ([]service.UserView, int64, error) {
	args := m.Called(ctx, viewerID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.UserView), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	args := m.Called(ctx, userID, req)
	return args.Error(0)
}

// MockSubscriptionService is a mock implementation of the subscription service
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipeLimit *int) (*service.SubscriptionView, error) {
	args := m.Called(ctx, userID, authorID, recipeLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	args := m.Called(ctx, userID, authorID)
	return args.Error(0)
}

func (m *MockSubscriptionService) ListSubscriptions(ctx context.Context, userID uint, page service.Page, recipeLimit *int) ([]service.SubscriptionView, int64, error) {
	args := m.Called(ctx, userID, page, recipeLimit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.SubscriptionView), args.Get(1).(int64), args.Error(2)
}

// MockCatalogService is a mock implementation of the catalog service
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockCatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockCatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockCatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

var (
	_ service.IAuthService         = (*MockAuthService)(nil)
	_ service.IUserService         = (*MockUserService)(nil)
	_ service.ISubscriptionService = (*MockSubscriptionService)(nil)
	_ service.ICatalogService      = (*MockCatalogService)(nil)
	_ service.IRecipeService       = (*MockRecipeService)(nil)
	_ service.IFavoriteService     = (*MockFavoriteService)(nil)
	_ service.IShoppingCartService = (*MockShoppingCartService)(nil)
)
