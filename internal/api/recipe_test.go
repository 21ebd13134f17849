package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
	"github.com/pageza/savorly/backend/internal/testhelpers"
	"github.com/pageza/savorly/backend/internal/types"
)

func pancakeRequest() types.RecipeRequest {
	return types.RecipeRequest{
		Name:         "Pancakes",
		Category:     "breakfast",
		Servings:     4,
		Ingredients:  []recipeutil.Ingredient(testhelpers.PancakeIngredients()),
		Instructions: []string{"Whisk everything together.", "Cook on a pan at [temp:180:356] until golden."},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.tokenFor(t, "cook", models.RoleUser)

	w := a.do(t, http.MethodPost, "/api/v1/recipes", token, pancakeRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	created := decode[models.Recipe](t, w)
	assert.Equal(t, "Breakfast", created.Category)

	path := "/api/v1/recipes/" + created.ID.String()
	w = a.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPut, path, token, types.RecipeRequest{Description: "Sunday pancakes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sunday pancakes", decode[models.Recipe](t, w).Description)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))

	w = a.do(t, http.MethodGet, "/api/v1/recipes?category=Breakfast", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []models.Recipe `json:"items"`
		Total int64           `json:"total"`
	}](t, w)
	assert.EqualValues(t, 1, list.Total)

	w = a.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeOwnership(t *testing.T) {
	a := newTestAPI(t)
	owner, _ := a.tokenFor(t, "owner", models.RoleUser)
	_, strangerToken := a.tokenFor(t, "stranger", models.RoleUser)
	_, adminToken := a.tokenFor(t, "admin", models.RoleAdmin)
	recipe := testhelpers.CreateRecipe(t, a.db, owner, "Pancakes")
	path := "/api/v1/recipes/" + recipe.ID.String()

	w := a.do(t, http.MethodPut, path, strangerToken, types.RecipeRequest{Name: "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodDelete, path, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecipeCreationIsRateLimited(t *testing.T) {
	a := newTestAPI(t)
	_, token := a.tokenFor(t, "busy", models.RoleUser)

	for i := 0; i < 5; i++ {
		req := pancakeRequest()
		req.Name = fmt.Sprintf("Pancakes %d", i)
		w := a.do(t, http.MethodPost, "/api/v1/recipes", token, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := a.do(t, http.MethodPost, "/api/v1/recipes", token, pancakeRequest())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRenderRecipe(t *testing.T) {
	a := newTestAPI(t)
	owner := testhelpers.CreateUser(t, a.db, "owner", models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, a.db, owner, "Pancakes")
	path := "/api/v1/recipes/" + recipe.ID.String() + "/render"

	w := a.do(t, http.MethodGet, path+"?servings=8&system=us", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rendered := decode[recipeutil.Rendered](t, w)
	assert.Equal(t, 8, rendered.Servings)
	assert.Equal(t, recipeutil.US, rendered.System)
	assert.Equal(t, []string{"4 cups flour", "2 1/2 cups milk", "a pinch salt"}, rendered.Ingredients)
	assert.Equal(t, "Cook on a pan at 356°F until golden.", rendered.Instructions[1])

	w = a.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rendered = decode[recipeutil.Rendered](t, w)
	assert.Equal(t, 4, rendered.Servings)
	assert.Equal(t, []string{"250 g flour", "300 ml milk", "a pinch salt"}, rendered.Ingredients)
	assert.Equal(t, "Cook on a pan at 180°C until golden.", rendered.Instructions[1])

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown system", path + "?system=kelvin", http.StatusBadRequest},
		{"negative servings", path + "?servings=-2", http.StatusBadRequest},
		{"malformed id", "/api/v1/recipes/not-a-uuid/render", http.StatusBadRequest},
		{"missing recipe", "/api/v1/recipes/" + uuid.NewString() + "/render", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.do(t, http.MethodGet, tt.path, "", nil).Code)
		})
	}
}

func TestRenderRecipeUsesPreferredSystem(t *testing.T) {
	a := newTestAPI(t)
	owner := testhelpers.CreateUser(t, a.db, "owner", models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, a.db, owner, "Pancakes")
	require.NoError(t, a.db.Model(owner).Update("preferred_system", "us").Error)
	token, err := a.auth.TokenFor(owner)
	require.NoError(t, err)

	w := a.do(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String()+"/render", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rendered := decode[recipeutil.Rendered](t, w)
	assert.Equal(t, recipeutil.US, rendered.System)
	assert.Equal(t, "2 cups flour", rendered.Ingredients[0])

	w = a.do(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String()+"/render?system=metric", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recipeutil.Metric, decode[recipeutil.Rendered](t, w).System)
}

func TestFavoritesAndRatings(t *testing.T) {
	a := newTestAPI(t)
	owner := testhelpers.CreateUser(t, a.db, "owner", models.RoleUser)
	_, token := a.tokenFor(t, "fan", models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, a.db, owner, "Pancakes")
	path := "/api/v1/recipes/" + recipe.ID.String()

	w := a.do(t, http.MethodPost, path+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/v1/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	favorites := decode[struct {
		Items []models.Recipe `json:"items"`
	}](t, w)
	require.Len(t, favorites.Items, 1)
	assert.Equal(t, recipe.ID, favorites.Items[0].ID)

	w = a.do(t, http.MethodDelete, path+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, path+"/rating", token, types.RateRecipeRequest{Score: 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rated := decode[models.Recipe](t, w)
	assert.Equal(t, 1, rated.RatingCount)
	assert.InDelta(t, 4.0, rated.AverageRating, 1e-9)

	w = a.do(t, http.MethodPost, path+"/rating", token, types.RateRecipeRequest{Score: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, path+"/favorite", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchRecipesRequiresQuery(t *testing.T) {
	a := newTestAPI(t)
	owner := testhelpers.CreateUser(t, a.db, "owner", models.RoleUser)
	testhelpers.CreateRecipe(t, a.db, owner, "Pancakes")

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/v1/recipes/search", "", nil).Code)

	w := a.do(t, http.MethodGet, "/api/v1/recipes/search?q=pancakes", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Pancakes")
}
