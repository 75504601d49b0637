// Package cart holds the ordered line items of one session and derives its
// totals. Lines are never merged: the same product added twice is two lines.
package cart

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

var gstRate = decimal.RequireFromString("0.18")

// Cart is not safe for concurrent use; the owning session serializes access.
type Cart struct {
	lines []entity.Product
}

func New() *Cart {
	return &Cart{}
}

// FromLines rebuilds a cart from a stored snapshot.
func FromLines(lines []entity.Product) *Cart {
	c := &Cart{}
	c.lines = append(c.lines, lines...)
	return c
}

// Add appends product to the end of the cart.
func (c *Cart) Add(product entity.Product) {
	c.lines = append(c.lines, product)
}

// RemoveAt drops the line at index and reports whether anything was removed.
// Out of range indexes leave the cart untouched.
func (c *Cart) RemoveAt(index int) bool {
	if index < 0 || index >= len(c.lines) {
		return false
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return true
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []entity.Product {
	out := make([]entity.Product, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() float64 {
	return c.total().InexactFloat64()
}

// GST is 18% of the total, rounded to two places half away from zero.
func (c *Cart) GST() float64 {
	return gstOf(c.total()).InexactFloat64()
}

// GrandTotal adds the already rounded GST to the total and rounds again.
func (c *Cart) GrandTotal() float64 {
	total := c.total()
	return total.Add(gstOf(total)).Round(2).InexactFloat64()
}

// Totals computes all three figures from one pass over the lines.
func (c *Cart) Totals() Totals {
	total := c.total()
	gst := gstOf(total)
	return Totals{
		Total:      total.InexactFloat64(),
		GST:        gst.InexactFloat64(),
		GrandTotal: total.Add(gst).Round(2).InexactFloat64(),
	}
}

type Totals struct {
	Total      float64 `json:"total"`
	GST        float64 `json:"gst"`
	GrandTotal float64 `json:"grandTotal"`
}

func (c *Cart) total() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(decimal.NewFromFloat(line.Price))
	}
	return sum
}

func gstOf(total decimal.Decimal) decimal.Decimal {
	return total.Mul(gstRate).Round(2)
}
