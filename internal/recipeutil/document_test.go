package recipeutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pancakeYAML = `
name: Pancakes
category: breakfast
servings: 4
ingredients:
  - name: flour
    metric: {quantity: 250, unit: g}
    us: {quantity: 2, unit: cups}
  - name: salt
    metric: {quantity: a pinch}
    us: {quantity: a pinch}
instructions:
  - Cook on a pan at [temp:180:356] until golden.
---
kind: cocktail
name: Negroni
servings: 1
ingredients:
  - name: gin
    metric: {quantity: 30, unit: ml}
    us: {quantity: 1, unit: oz}
`

func TestLoadDocuments(t *testing.T) {
	docs, err := LoadDocuments(strings.NewReader(pancakeYAML))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	pancakes := docs[0]
	assert.Equal(t, "Pancakes", pancakes.Name)
	assert.Equal(t, 4, pancakes.Servings)
	require.Len(t, pancakes.Ingredients, 2)
	assert.True(t, pancakes.Ingredients[1].Metric.Quantity.IsDescriptive())

	rendered := Render(pancakes.RenderInput(), 8, US)
	assert.Equal(t, []string{"4 cups flour", "a pinch salt"}, rendered.Ingredients)
	assert.Equal(t, []string{"Cook on a pan at 356°F until golden."}, rendered.Instructions)

	assert.Equal(t, "cocktail", docs[1].Kind)
}

func TestLoadDocumentsErrors(t *testing.T) {
	_, err := LoadDocuments(strings.NewReader("servings: 2\ningredients:\n  - name: egg\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadDocuments(strings.NewReader("name: [unterminated"))
	assert.Error(t, err)

	docs, err := LoadDocuments(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}
