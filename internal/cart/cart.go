// Package cart implements the per-user shopping cart with quantity-tier
// pricing.
package cart

import "time"

// BulkThreshold is the minimum quantity at which the bulk price applies.
const BulkThreshold = 5

// Line is one product's quantity and computed pricing within a cart.
type Line struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	BulkPrice      int64  `json:"bulk_price"`
	AvailableStock int    `json:"available_stock"`
	AppliedPrice   int64  `json:"applied_price"`
	LineTotal      int64  `json:"line_total"`
	BulkApplied    bool   `json:"bulk_applied"`
}

// reprice recomputes AppliedPrice, LineTotal and BulkApplied from the
// quantity and the price tiers. The bulk price only applies when it is a
// real discount.
func (l *Line) reprice() {
	l.AppliedPrice = l.UnitPrice
	l.BulkApplied = false

	if l.Quantity >= BulkThreshold && l.BulkPrice > 0 && l.BulkPrice < l.UnitPrice {
		l.AppliedPrice = l.BulkPrice
		l.BulkApplied = true
	}

	l.LineTotal = l.AppliedPrice * int64(l.Quantity)
}

// Cart is the ordered sequence of lines for one user.
type Cart struct {
	UserID    string    `json:"user_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals summarizes a cart for display and for the delivery-minimum check.
type Totals struct {
	Subtotal            int64 `json:"subtotal"`
	Discount            int64 `json:"discount"`
	Total               int64 `json:"total"`
	LineCount           int   `json:"line_count"`
	UnitCount           int   `json:"unit_count"`
	DiscountedLineCount int   `json:"discounted_line_count"`
}

// Totals computes the cart summary. Subtotal is priced at unit price; the
// discount is whatever the bulk tiers saved.
func (c *Cart) Totals() Totals {
	var t Totals
	if c == nil {
		return t
	}

	for _, line := range c.Lines {
		t.Subtotal += line.UnitPrice * int64(line.Quantity)
		t.Total += line.LineTotal
		t.UnitCount += line.Quantity
		if line.BulkApplied {
			t.DiscountedLineCount++
		}
	}
	t.LineCount = len(c.Lines)
	t.Discount = t.Subtotal - t.Total

	return t
}

// find returns the index of the line holding productID, or -1.
func (c *Cart) find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
