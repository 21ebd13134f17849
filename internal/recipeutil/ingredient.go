package recipeutil

import (
	"math"
	"strconv"
	"strings"
)

// System selects which of the two parallel measures is displayed.
type System string

const (
	Metric System = "metric"
	US     System = "us"
)

// ParseSystem resolves a user-supplied unit system. Empty input means metric.
func ParseSystem(s string) (System, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "metric":
		return Metric, true
	case "us", "imperial":
		return US, true
	default:
		return Metric, false
	}
}

// Measure is an amount in one unit system.
type Measure struct {
	Quantity Quantity `json:"quantity" yaml:"quantity"`
	Unit     string   `json:"unit" yaml:"unit"`
}

// Ingredient carries the same amount in metric and US customary units.
// Callers author both measures; they are not converted into each other here.
type Ingredient struct {
	Name   string  `json:"name" yaml:"name"`
	Metric Measure `json:"metric" yaml:"metric"`
	US     Measure `json:"us" yaml:"us"`
}

// Measure returns the measure for the given system.
func (i Ingredient) Measure(system System) Measure {
	if system == US {
		return i.US
	}
	return i.Metric
}

// FormatIngredient renders "<quantity> <unit> <name>" for the chosen system.
func FormatIngredient(ing Ingredient, system System) string {
	m := ing.Measure(system)
	if m.Quantity.IsDescriptive() {
		return joinFields(m.Quantity.Text(), m.Unit, ing.Name)
	}

	value := m.Quantity.Float()
	if value == 0 || math.IsNaN(value) {
		return strings.TrimSpace(ing.Name)
	}
	return joinFields(FormatQuantity(value, system), m.Unit, ing.Name)
}

// FormatQuantity prints a decimal for metric and a fraction for US display.
func FormatQuantity(value float64, system System) string {
	if system == US {
		return ToFraction(value)
	}
	return strconv.FormatFloat(round2(value), 'f', -1, 64)
}

func joinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
