package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/pageza/savorly/backend/internal/recipeutil"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	*a = JSONBStringArray{}
	b, ok := jsonBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, a)
}

// IngredientList stores dual-unit ingredients as a JSONB array.
type IngredientList []recipeutil.Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	*l = IngredientList{}
	b, ok := jsonBytes(value)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(b, l); err != nil {
		return fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	return nil
}

func jsonBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, len(v) > 0
	case string:
		return []byte(v), v != ""
	default:
		return nil, false
	}
}
