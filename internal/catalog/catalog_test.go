package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/catalog"
	"storefront-service/internal/entity"
)

func TestDefault(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"home", "electronics", "kurthas", "tops", "sarees", "earrings"}, c.Categories())

	p, err := c.Lookup("kurthas", 0)
	require.NoError(t, err)
	assert.Equal(t, entity.Product{
		Name:  "Kurtha1",
		Price: 899,
		Image: "/images/kurtha1.webp",
		Specs: "Cotton, Festive Wear",
	}, p)

	p, err = c.Lookup("electronics", 3)
	require.NoError(t, err)
	assert.Equal(t, "MacBook", p.Name)
	assert.Equal(t, 80000.0, p.Price)
}

func TestLookup_NotFound(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	_, err = c.Lookup("shoes", 0)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = c.Lookup("tops", 9)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = c.Lookup("tops", -1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"categories":[{"name":"gifts","title":"Gifts","products":[{"name":"Mug","price":249,"image":"/images/mug.webp","specs":"Ceramic"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gifts"}, c.Categories())

	p, err := c.Lookup("gifts", 0)
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	assert.Len(t, c.Categories(), 6)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"categories":`,
		"unnamed":       `{"categories":[{"title":"x"}]}`,
		"duplicate":     `{"categories":[{"name":"a"},{"name":"a"}]}`,
		"negativePrice": `{"categories":[{"name":"a","products":[{"name":"x","price":-1}]}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}
