package recipeutil

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestToFraction(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "1/2"},
		{1.5, "1 1/2"},
		{1.0 / 3.0, "1/3"},
		{2, "2"},
		{0.75, "3/4"},
		{0.0625, "1/16"},
		{2.25, "2 1/4"},
		{0.1428571, "1/7"},
		{0.6173, "0.62"},
		{3.14159, "3.14"},
		{0.9999999, "1"},
		{-1.5, "-1 1/2"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToFraction(tt.in), "ToFraction(%v)", tt.in)
	}
}

func TestToFractionNonFinite(t *testing.T) {
	assert.Equal(t, "NaN", ToFraction(math.NaN()))
	assert.Equal(t, "+Inf", ToFraction(math.Inf(1)))
}

func TestFractionRoundTrip(t *testing.T) {
	for den := 1; den <= 16; den++ {
		for num := 1; num <= 3*den; num++ {
			x := float64(num) / float64(den)
			got := ParseQuantity(ToFraction(x))
			assert.InDelta(t, x, got, 1e-2, "round trip of %d/%d via %q", num, den, ToFraction(x))
		}
	}
}

func TestFormatIngredient(t *testing.T) {
	flour := Ingredient{
		Name:   "flour",
		Metric: Measure{Quantity: NumericQuantity(250), Unit: "g"},
		US:     Measure{Quantity: NumericQuantity(1.5), Unit: "cups"},
	}
	assert.Equal(t, "250 g flour", FormatIngredient(flour, Metric))
	assert.Equal(t, "1 1/2 cups flour", FormatIngredient(flour, US))

	salt := Ingredient{Name: "Salt"}
	assert.Equal(t, "Salt", FormatIngredient(salt, Metric))
	assert.Equal(t, "Salt", FormatIngredient(salt, US))

	pepper := Ingredient{
		Name:   "black pepper",
		Metric: Measure{Quantity: DescriptiveQuantity("to taste")},
		US:     Measure{Quantity: DescriptiveQuantity("a pinch of"), Unit: ""},
	}
	assert.Equal(t, "to taste black pepper", FormatIngredient(pepper, Metric))
	assert.Equal(t, "a pinch of black pepper", FormatIngredient(pepper, US))

	eggs := Ingredient{
		Name:   "eggs",
		Metric: Measure{Quantity: NumericQuantity(2)},
		US:     Measure{Quantity: NumericQuantity(2)},
	}
	assert.Equal(t, "2 eggs", FormatIngredient(eggs, Metric))

	thirds := Ingredient{Name: "stock", Metric: Measure{Quantity: NumericQuantity(1.0 / 3.0), Unit: "l"}}
	assert.Equal(t, "0.33 l stock", FormatIngredient(thirds, Metric))
}

func TestParseSystem(t *testing.T) {
	s, ok := ParseSystem("US")
	assert.True(t, ok)
	assert.Equal(t, US, s)

	s, ok = ParseSystem("")
	assert.True(t, ok)
	assert.Equal(t, Metric, s)

	_, ok = ParseSystem("kelvin")
	assert.False(t, ok)
}

func TestAdjustIngredient(t *testing.T) {
	flour := Ingredient{
		Name:   "flour",
		Metric: Measure{Quantity: NumericQuantity(250), Unit: "g"},
		US:     Measure{Quantity: QuantityFromString("2"), Unit: "cups"},
	}

	scaled := AdjustIngredient(flour, 4, 6)
	assert.Equal(t, 375.0, scaled.Metric.Quantity.Float())
	assert.Equal(t, "375 g flour", FormatIngredient(scaled, Metric))
	assert.Equal(t, "3 cups flour", FormatIngredient(scaled, US))

	// input untouched
	assert.Equal(t, 250.0, flour.Metric.Quantity.Float())

	back := AdjustIngredient(AdjustIngredient(flour, 4, 8), 8, 4)
	assert.InDelta(t, 250.0, back.Metric.Quantity.Float(), 0.01)
	assert.InDelta(t, 2.0, back.US.Quantity.Float(), 0.01)
}

func TestAdjustIngredientKeepsRawUS(t *testing.T) {
	ing := Ingredient{
		Name:   "sugar",
		Metric: Measure{Quantity: NumericQuantity(100), Unit: "g"},
		US:     Measure{Quantity: NumericQuantity(1), Unit: "cup"},
	}
	scaled := AdjustIngredient(ing, 3, 1)
	assert.Equal(t, 33.33, scaled.Metric.Quantity.Float())
	assert.InDelta(t, 1.0/3.0, scaled.US.Quantity.Float(), 1e-12)
	assert.Equal(t, "1/3 cup sugar", FormatIngredient(scaled, US))
}

func TestAdjustIngredientInvalidServings(t *testing.T) {
	ing := Ingredient{Name: "milk", Metric: Measure{Quantity: NumericQuantity(200), Unit: "ml"}}
	assert.Equal(t, ing, AdjustIngredient(ing, 0, 4))
	assert.Equal(t, ing, AdjustIngredient(ing, 4, -1))
}

func TestAdjustIngredientDescriptive(t *testing.T) {
	ing := Ingredient{Name: "salt", Metric: Measure{Quantity: DescriptiveQuantity("to taste")}}
	scaled := AdjustIngredient(ing, 2, 10)
	assert.True(t, scaled.Metric.Quantity.IsDescriptive())
	assert.Equal(t, "to taste salt", FormatIngredient(scaled, Metric))
}

func TestFormatInstruction(t *testing.T) {
	in := "Bake at [temp:180:356] degrees"
	assert.Equal(t, "Bake at 180°C degrees", FormatInstruction(in, Metric))
	assert.Equal(t, "Bake at 356°F degrees", FormatInstruction(in, US))

	multi := "Preheat to [temp:200:392], then drop to [temp:160:320]."
	assert.Equal(t, "Preheat to 392°F, then drop to 320°F.", FormatInstruction(multi, US))

	malformed := "Chill at [temp:4] and serve [temp:x:y]"
	assert.Equal(t, malformed, FormatInstruction(malformed, Metric))
}

func TestRender(t *testing.T) {
	in := RenderInput{
		Name:     "Pancakes",
		Servings: 4,
		Ingredients: []Ingredient{
			{Name: "flour", Metric: Measure{NumericQuantity(250), "g"}, US: Measure{NumericQuantity(2), "cups"}},
			{Name: "salt"},
		},
		Instructions: []string{"Heat pan to [temp:190:375]."},
	}

	got := Render(in, 6, US)
	want := Rendered{
		Name:         "Pancakes",
		Servings:     6,
		System:       US,
		Ingredients:  []string{"3 cups flour", "salt"},
		Instructions: []string{"Heat pan to 375°F."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}

	same := Render(in, 0, Metric)
	assert.Equal(t, 4, same.Servings)
	assert.Equal(t, []string{"250 g flour", "salt"}, same.Ingredients)
}
