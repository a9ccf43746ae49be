package domain

import "github.com/shopspring/decimal"

// LineItem is one product-and-quantity entry in a cart. ProductID is the
// merge key; ID is only a client-side handle.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID int             `json:"productId"`
	Title     string          `json:"title,omitempty"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is Price * Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the full cart plus its derived totals. Total, ItemKinds and Units
// are always derived from Items through Recalculate. DiscountedTotal is
// carried through as-is.
type Cart struct {
	ID              int             `json:"id"`
	OwnerID         int             `json:"userId"`
	Items           []LineItem      `json:"products"`
	Total           decimal.Decimal `json:"total"`
	DiscountedTotal decimal.Decimal `json:"discountedTotal"`
	ItemKinds       int             `json:"totalProducts"`
	Units           int             `json:"totalQuantity"`
}

// Recalculate rebuilds the derived fields from Items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	units := 0
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
		units += item.Quantity
	}
	c.Total = total
	c.Units = units
	c.ItemKinds = len(c.Items)
}

// Find returns the index of the line item for productID, or -1.
func (c Cart) Find(productID int) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that does not share the Items backing array.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
