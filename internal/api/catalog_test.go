package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	breakfast := testhelpers.CreateTag(t, s.db, "Breakfast", "breakfast")
	testhelpers.CreateTag(t, s.db, "Dinner", "dinner")
	sugar := testhelpers.CreateIngredient(t, s.db, "Sugar", "g")
	testhelpers.CreateIngredient(t, s.db, "Sunflower oil", "ml")
	testhelpers.CreateIngredient(t, s.db, "Flour", "g")

	w := s.do(t, http.MethodGet, "/api/tags/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tags := decode[[]types.Tag](t, w)
	require.Len(t, tags, 2)
	assert.Equal(t, "breakfast", tags[0].Slug)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/tags/%d/", breakfast.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, breakfast.Color, decode[types.Tag](t, w).Color)

	w = s.do(t, http.MethodGet, "/api/tags/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/ingredients/?name=SU", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ingredients := decode[[]types.Ingredient](t, w)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "Sugar", ingredients[0].Name)
	assert.Equal(t, "Sunflower oil", ingredients[1].Name)

	w = s.do(t, http.MethodGet, "/api/ingredients/", "", nil)
	assert.Len(t, decode[[]types.Ingredient](t, w), 3)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/ingredients/%d/", sugar.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g", decode[types.Ingredient](t, w).MeasurementUnit)
}

func TestPaginatorPage(t *testing.T) {
	p := NewPaginator(6, 10)

	tests := []struct {
		query      string
		wantNumber int
		wantSize   int
	}{
		{query: "", wantNumber: 1, wantSize: 6},
		{query: "?page=3&limit=4", wantNumber: 3, wantSize: 4},
		{query: "?page=-1&limit=abc", wantNumber: 1, wantSize: 6},
		{query: "?limit=500", wantNumber: 1, wantSize: 10},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/api/recipes/"+tt.query)
			page := p.Page(c)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, tt.wantSize, page.Size)
		})
	}
}
