package recipeutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"number passes through", 2.5, 2.5},
		{"int passes through", 3, 3},
		{"mixed number", "1 1/2", 1.5},
		{"fraction", "3/4", 0.75},
		{"whole string", "2", 2},
		{"decimal string", "0.25", 0.25},
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"garbage", "abc", 0},
		{"numeric prefix", "2 large", 2},
		{"zero denominator fraction", "3/0", 3},
		{"zero denominator mixed", "1 2/0", 3},
		{"unsupported type", []int{1}, 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseQuantity(tt.in), 1e-9)
		})
	}
}

func TestParseQuantityLargeValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"mixed number at int64 limit", "9223372036854775807 1/2", 9223372036854775807.5},
		{"mixed number overflowing numerator", "5000000000000000000 1/3", 5e18 + 1.0/3},
		{"fraction beyond int64", "99999999999999999999/3", 99999999999999999999.0 / 3},
		{"mixed number beyond int64", "99999999999999999999 1/2", 99999999999999999999.5},
		{"denominator beyond int64", "1/99999999999999999999", 1 / 99999999999999999999.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuantity(tt.in)
			assert.Positive(t, got)
			assert.InEpsilon(t, tt.want, got, 1e-9)
		})
	}

	ing := Ingredient{Name: "x", US: Measure{Quantity: QuantityFromString("9223372036854775807 1/2")}}
	assert.NotContains(t, FormatIngredient(ing, US), "-")
}

func TestQuantityFromString(t *testing.T) {
	q := QuantityFromString("1 1/2")
	assert.Equal(t, Fraction, q.Kind())
	assert.Equal(t, "1 1/2", q.String())
	assert.InDelta(t, 1.5, q.Float(), 1e-9)

	q = QuantityFromString("to taste")
	assert.True(t, q.IsDescriptive())
	assert.Equal(t, "to taste", q.Text())
	assert.Zero(t, q.Float())

	q = QuantityFromString("250")
	assert.Equal(t, Numeric, q.Kind())
	assert.Equal(t, 250.0, q.Float())

	q = QuantityFromString("4/2")
	assert.Equal(t, "2", q.String())
}

func TestQuantityJSON(t *testing.T) {
	var ing Ingredient
	raw := `{"name":"Flour","metric":{"quantity":250,"unit":"g"},"us":{"quantity":"2 1/4","unit":"cups"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ing))

	assert.Equal(t, 250.0, ing.Metric.Quantity.Float())
	assert.Equal(t, Fraction, ing.US.Quantity.Kind())
	assert.InDelta(t, 2.25, ing.US.Quantity.Float(), 1e-9)

	out, err := json.Marshal(ing)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &q))
	require.NoError(t, json.Unmarshal([]byte(`null`), &q))
	assert.Equal(t, Numeric, q.Kind())
}

func TestNumericStringsEncodeAsNumbers(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"2 cups"`), &q))
	assert.Equal(t, Numeric, q.Kind())
	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `2`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`"a pinch"`), &q))
	out, err = json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `"a pinch"`, string(out))
}

func TestQuantityYAML(t *testing.T) {
	src := `
name: Sugar
metric:
  quantity: 100
  unit: g
us:
  quantity: 1/2
  unit: cup
`
	var ing Ingredient
	require.NoError(t, yaml.Unmarshal([]byte(src), &ing))
	assert.Equal(t, 100.0, ing.Metric.Quantity.Float())
	assert.Equal(t, "1/2", ing.US.Quantity.String())
}
