package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestSubscribeToggle(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	svc := NewSubscriptionService(k.db)

	view, err := svc.Subscribe(ctx, k.reader.ID, k.author.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, k.author.ID, view.Author.ID)

	_, err = svc.Subscribe(ctx, k.reader.ID, k.author.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	require.NoError(t, svc.Unsubscribe(ctx, k.reader.ID, k.author.ID))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, k.reader.ID, k.author.ID), ErrNotSubscribed)
}

func TestSelfSubscriptionRejected(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	svc := NewSubscriptionService(k.db)

	_, err := svc.Subscribe(ctx, k.reader.ID, k.reader.ID, nil)
	assert.ErrorIs(t, err, ErrSelfSubscription)
	assert.ErrorIs(t, svc.Unsubscribe(ctx, k.reader.ID, k.reader.ID), ErrSelfSubscription)

	// The model hook guards direct inserts as well.
	err = k.db.Create(&models.Subscription{UserID: k.reader.ID, AuthorID: k.reader.ID}).Error
	assert.ErrorIs(t, err, models.ErrSelfSubscription)
}

func TestSubscribeMissingAuthor(t *testing.T) {
	k := newKitchen(t)
	svc := NewSubscriptionService(k.db)

	_, err := svc.Subscribe(context.Background(), k.reader.ID, 777, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListSubscriptionsWithRecipeLimit(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()
	svc := NewSubscriptionService(k.db)

	other := testhelpers.CreateUser(t, k.db, "baker")
	for i, name := range []string{"First", "Second", "Third"} {
		r := testhelpers.CreateRecipe(t, k.db, k.author, name, map[*models.Ingredient]int{k.sugar: 1}, k.breakfast)
		k.db.Model(r).Update("created_at", time.Now().Add(time.Duration(i)*time.Minute))
	}
	testhelpers.CreateRecipe(t, k.db, other, "Bread", map[*models.Ingredient]int{k.flour: 500}, k.breakfast)

	_, err := svc.Subscribe(ctx, k.reader.ID, k.author.ID, nil)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, k.reader.ID, other.ID, nil)
	require.NoError(t, err)

	views, total, err := svc.ListSubscriptions(ctx, k.reader.ID, Page{Number: 1, Size: 10}, ptr(2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, views, 2)

	// Newest users first.
	assert.Equal(t, other.ID, views[0].Author.ID)
	assert.Equal(t, int64(1), views[0].RecipesCount)

	assert.Equal(t, k.author.ID, views[1].Author.ID)
	assert.Equal(t, int64(3), views[1].RecipesCount)
	require.Len(t, views[1].Recipes, 2)
	assert.Equal(t, "Third", views[1].Recipes[0].Name)
	assert.Equal(t, "Second", views[1].Recipes[1].Name)

	views, _, err = svc.ListSubscriptions(ctx, k.reader.ID, Page{Number: 2, Size: 1}, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Recipes, 3)
}
