package recipeutil

// RenderInput is the subset of a stored recipe needed for display.
type RenderInput struct {
	Name         string
	Servings     int
	Ingredients  []Ingredient
	Instructions []string
}

// Rendered is a recipe as shown for one serving count and unit system.
type Rendered struct {
	Name         string   `json:"name" msgpack:"name"`
	Servings     int      `json:"servings" msgpack:"servings"`
	System       System   `json:"system" msgpack:"system"`
	Ingredients  []string `json:"ingredients" msgpack:"ingredients"`
	Instructions []string `json:"instructions" msgpack:"instructions"`
}

// Render scales and formats a recipe. servings <= 0 keeps the stored count, and
// a recipe without a stored count is never scaled.
func Render(in RenderInput, servings int, system System) Rendered {
	if servings <= 0 || in.Servings <= 0 {
		servings = in.Servings
	}

	scaled := AdjustIngredients(in.Ingredients, float64(in.Servings), float64(servings))
	lines := make([]string, len(scaled))
	for i, ing := range scaled {
		lines[i] = FormatIngredient(ing, system)
	}

	return Rendered{
		Name:         in.Name,
		Servings:     servings,
		System:       system,
		Ingredients:  lines,
		Instructions: FormatInstructions(in.Instructions, system),
	}
}
