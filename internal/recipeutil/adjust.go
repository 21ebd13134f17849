package recipeutil

// AdjustIngredient scales both measures by newServings/originalServings.
// Metric amounts are rounded to two decimals; US amounts stay raw because
// ToFraction snaps them at display time. Non-positive serving counts leave
// the ingredient unchanged.
func AdjustIngredient(ing Ingredient, originalServings, newServings float64) Ingredient {
	if originalServings <= 0 || newServings <= 0 {
		return ing
	}
	ratio := newServings / originalServings

	out := ing
	out.Metric.Quantity = scale(ing.Metric.Quantity, ratio, true)
	out.US.Quantity = scale(ing.US.Quantity, ratio, false)
	return out
}

// AdjustIngredients scales every ingredient into a new slice.
func AdjustIngredients(ings []Ingredient, originalServings, newServings float64) []Ingredient {
	out := make([]Ingredient, len(ings))
	for i, ing := range ings {
		out[i] = AdjustIngredient(ing, originalServings, newServings)
	}
	return out
}

func scale(q Quantity, ratio float64, round bool) Quantity {
	if q.IsDescriptive() {
		return q
	}
	v := q.Float() * ratio
	if round {
		v = round2(v)
	}
	return NumericQuantity(v)
}
