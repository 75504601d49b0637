package cart_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
)

func product(name string, price float64) entity.Product {
	return entity.Product{Name: name, Price: price}
}

func TestTotals_Kurthas(t *testing.T) {
	c := cart.New()
	c.Add(product("Kurtha1", 899))
	c.Add(product("Kurtha2", 999))
	c.Add(product("Kurtha3", 799))

	assert.Equal(t, 2697.0, c.Total())
	assert.Equal(t, 485.46, c.GST())
	assert.Equal(t, 3182.46, c.GrandTotal())

	totals := c.Totals()
	assert.Equal(t, cart.Totals{Total: 2697, GST: 485.46, GrandTotal: 3182.46}, totals)
}

func TestTotals_Empty(t *testing.T) {
	c := cart.New()
	assert.Equal(t, 0.0, c.Total())
	assert.Equal(t, 0.0, c.GST())
	assert.Equal(t, 0.0, c.GrandTotal())
}

func TestGST_RoundsHalfAwayFromZero(t *testing.T) {
	c := cart.New()
	// 0.25 * 0.18 = 0.045
	c.Add(product("fraction", 0.25))
	assert.Equal(t, 0.05, c.GST())
	assert.Equal(t, 0.3, c.GrandTotal())
}

func TestAdd_KeepsDuplicatesAsSeparateLines(t *testing.T) {
	c := cart.New()
	shirt := product("Men's Shirt", 999)
	c.Add(shirt)
	c.Add(shirt)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []entity.Product{shirt, shirt}, c.Lines())
	assert.Equal(t, 1998.0, c.Total())
}

func TestRemoveAt(t *testing.T) {
	c := cart.New()
	c.Add(product("a", 1))
	c.Add(product("b", 2))
	c.Add(product("c", 3))

	assert.True(t, c.RemoveAt(1))
	assert.Equal(t, []entity.Product{product("a", 1), product("c", 3)}, c.Lines())
	assert.Equal(t, 4.0, c.Total())
}

func TestRemoveAt_OutOfRangeIsNoop(t *testing.T) {
	c := cart.New()
	c.Add(product("a", 1))
	c.Add(product("b", 2))
	before := c.Lines()

	for _, idx := range []int{-1, 2, 3, 100} {
		assert.False(t, c.RemoveAt(idx), "index %d", idx)
		assert.Equal(t, before, c.Lines(), "index %d", idx)
	}
}

func TestLines_ReturnsSnapshot(t *testing.T) {
	c := cart.New()
	c.Add(product("a", 1))
	snap := c.Lines()

	c.Add(product("b", 2))
	c.RemoveAt(0)

	assert.Equal(t, []entity.Product{product("a", 1)}, snap)
}

func TestClear(t *testing.T) {
	c := cart.FromLines([]entity.Product{product("a", 1), product("b", 2)})
	require.Equal(t, 2, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0.0, c.Total())
}

func TestRandomMutations_TotalMatchesLines(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := cart.New()

	for i := 0; i < 500; i++ {
		if rng.Intn(3) == 0 {
			c.RemoveAt(rng.Intn(c.Len()+2) - 1)
		} else {
			c.Add(product("p", float64(rng.Intn(5000))))
		}

		var sum float64
		for _, line := range c.Lines() {
			sum += line.Price
		}
		require.Equal(t, sum, c.Total())

		totals := c.Totals()
		assert.Equal(t, c.GST(), totals.GST)
		assert.Equal(t, c.GrandTotal(), totals.GrandTotal)
	}
}
