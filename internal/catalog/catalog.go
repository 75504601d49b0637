// Package catalog serves the static product lists. The catalog is
// configuration data: the embedded default ships with the binary and can be
// replaced at startup with a file of the same shape.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"storefront-service/internal/entity"
)

//go:embed catalog.json
var defaultCatalog []byte

var ErrProductNotFound = errors.New("product not found")

type Category struct {
	Name     string           `json:"name"`
	Title    string           `json:"title"`
	Products []entity.Product `json:"products"`
}

type Catalog struct {
	order      []string
	categories map[string]Category
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path yields the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{categories: make(map[string]Category, len(doc.Categories))}
	for _, cat := range doc.Categories {
		if cat.Name == "" {
			return nil, errors.New("catalog category without name")
		}
		if _, dup := c.categories[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog category %q", cat.Name)
		}
		for _, p := range cat.Products {
			if p.Price < 0 {
				return nil, fmt.Errorf("category %q: negative price for %q", cat.Name, p.Name)
			}
		}
		c.order = append(c.order, cat.Name)
		c.categories[cat.Name] = cat
	}
	return c, nil
}

// Categories lists category names in file order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Lookup returns the product at position index of category.
func (c *Catalog) Lookup(category string, index int) (entity.Product, error) {
	cat, ok := c.categories[category]
	if !ok || index < 0 || index >= len(cat.Products) {
		return entity.Product{}, fmt.Errorf("%w: %s[%d]", ErrProductNotFound, category, index)
	}
	return cat.Products[index], nil
}
