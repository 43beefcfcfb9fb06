// Package words supplies the secret words a round is played around.
package words

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type category struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

type catalogFile struct {
	Categories []category `yaml:"categories"`
}

// Catalog is an in-memory word list grouped by category.
type Catalog struct {
	categories []category
	rng        *rand.Rand
}

// Load parses the embedded catalog.
func Load(rng *rand.Rand) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse word catalog: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("word catalog is empty")
	}
	for _, c := range file.Categories {
		if len(c.Words) == 0 {
			return nil, fmt.Errorf("word catalog category %q has no words", c.Name)
		}
	}
	return &Catalog{categories: file.Categories, rng: rng}, nil
}

// Draw returns a random word and its category, avoiding the excluded word
// when it can.
func (c *Catalog) Draw(exclude string) (string, string) {
	for attempts := 0; attempts < 50; attempts++ {
		cat := c.categories[c.rng.Intn(len(c.categories))]
		word := cat.Words[c.rng.Intn(len(cat.Words))]
		if word != exclude {
			return word, cat.Name
		}
	}
	cat := c.categories[c.rng.Intn(len(c.categories))]
	return cat.Words[c.rng.Intn(len(cat.Words))], cat.Name
}
