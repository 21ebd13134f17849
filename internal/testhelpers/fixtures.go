package testhelpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/recipeutil"
)

// CreateUser inserts a user with the given role. The password hash is not a
// real bcrypt hash; use the auth service when a login is needed.
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-hash",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// PancakeIngredients serves 4.
func PancakeIngredients() models.IngredientList {
	return models.IngredientList{
		{
			Name:   "flour",
			Metric: recipeutil.Measure{Quantity: recipeutil.NumericQuantity(250), Unit: "g"},
			US:     recipeutil.Measure{Quantity: recipeutil.FractionQuantity(2, 1), Unit: "cups"},
		},
		{
			Name:   "milk",
			Metric: recipeutil.Measure{Quantity: recipeutil.NumericQuantity(300), Unit: "ml"},
			US:     recipeutil.Measure{Quantity: recipeutil.NumericQuantity(1.25), Unit: "cups"},
		},
		{
			Name:   "salt",
			Metric: recipeutil.Measure{Quantity: recipeutil.DescriptiveQuantity("a pinch")},
			US:     recipeutil.Measure{Quantity: recipeutil.DescriptiveQuantity("a pinch")},
		},
	}
}

// CreateRecipe inserts a four-serving pancake recipe owned by owner.
func CreateRecipe(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Name:         name,
		Description:  "Fluffy breakfast pancakes",
		Category:     "Breakfast",
		Servings:     4,
		Ingredients:  PancakeIngredients(),
		Instructions: models.JSONBStringArray{"Whisk everything together.", "Cook on a pan at [temp:180:356] until golden."},
		Tags:         models.JSONBStringArray{"quick"},
		UserID:       owner.ID,
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}
