package recipeutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a recipe as authored in YAML seed files and on the command line.
type Document struct {
	Kind         string       `yaml:"kind"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Category     string       `yaml:"category"`
	Cuisine      string       `yaml:"cuisine"`
	Difficulty   string       `yaml:"difficulty"`
	Servings     int          `yaml:"servings"`
	PrepMinutes  int          `yaml:"prep_minutes"`
	CookMinutes  int          `yaml:"cook_minutes"`
	Ingredients  []Ingredient `yaml:"ingredients"`
	Instructions []string     `yaml:"instructions"`
	Tags         []string     `yaml:"tags"`
}

func (d Document) RenderInput() RenderInput {
	return RenderInput{
		Name:         d.Name,
		Servings:     d.Servings,
		Ingredients:  d.Ingredients,
		Instructions: d.Instructions,
	}
}

// LoadDocuments reads a stream of YAML documents separated by "---".
// Empty documents are skipped; a document without a name is an error.
func LoadDocuments(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	var docs []Document
	for i := 1; ; i++ {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if doc.Name == "" && len(doc.Ingredients) == 0 {
			continue
		}
		if strings.TrimSpace(doc.Name) == "" {
			return nil, fmt.Errorf("document %d: name is required", i)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
