package procurement

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupBySupplier builds a cart for storeID. Groups appear in the order their
// supplier is first seen and keep the order of their suggestions.
func GroupBySupplier(storeID int64, suggestions []ReorderSuggestion) *Cart {
	cart := &Cart{StoreID: storeID, Groups: []*SupplierGroup{}}
	for _, s := range suggestions {
		s.TotalPrice = lineTotal(s.UnitPrice, s.SuggestedQuantity)
		group := cart.Group(s.SupplierID)
		if group == nil {
			group = &SupplierGroup{SupplierID: s.SupplierID, SupplierName: s.SupplierName}
			cart.Groups = append(cart.Groups, group)
		}
		group.Items = append(group.Items, s)
	}
	for _, g := range cart.Groups {
		g.Recompute()
	}
	return cart
}

// Recompute sets the group total to the sum of its line totals.
func (g *SupplierGroup) Recompute() {
	total := decimal.Zero
	for _, item := range g.Items {
		total = total.Add(item.TotalPrice)
	}
	g.GroupTotal = total
}

// Group returns the supplier's group or nil.
func (c *Cart) Group(supplierID int64) *SupplierGroup {
	for _, g := range c.Groups {
		if g.SupplierID == supplierID {
			return g
		}
	}
	return nil
}

// Total sums every group total.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, g := range c.Groups {
		total = total.Add(g.GroupTotal)
	}
	return total
}

// Empty reports whether no group has lines left.
func (c *Cart) Empty() bool {
	for _, g := range c.Groups {
		if len(g.Items) > 0 {
			return false
		}
	}
	return true
}

// UpdateQuantity sets the quantity of a product's line. Negative quantities
// are rejected without touching the cart.
func (c *Cart) UpdateQuantity(productID int64, qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	g, i := c.find(productID)
	if g == nil {
		return ErrLineNotFound
	}
	g.Items[i].SuggestedQuantity = qty
	g.Items[i].TotalPrice = lineTotal(g.Items[i].UnitPrice, qty)
	g.Recompute()
	return nil
}

// RemoveItem drops a product's line. An emptied group stays in the cart.
func (c *Cart) RemoveItem(productID int64) error {
	g, i := c.find(productID)
	if g == nil {
		return ErrLineNotFound
	}
	g.Items = append(g.Items[:i], g.Items[i+1:]...)
	g.Recompute()
	return nil
}

// PrepareOrder validates a finalize request against the cart and builds the
// pending order for it. The cart is not modified.
func (c *Cart) PrepareOrder(input FinalizeInput, now time.Time) (Order, error) {
	if input.SupplierID <= 0 {
		return Order{}, ErrSupplierRequired
	}
	if input.ExpectedDelivery == nil || input.ExpectedDelivery.IsZero() {
		return Order{}, ErrDeliveryDateRequired
	}
	g := c.Group(input.SupplierID)
	if g == nil || len(g.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	order := Order{
		StoreID:          c.StoreID,
		SupplierID:       g.SupplierID,
		Status:           OrderPending,
		TotalAmount:      g.GroupTotal,
		OrderDate:        now,
		ExpectedDelivery: *input.ExpectedDelivery,
		Notes:            input.Notes,
		UpdatedAt:        now,
	}
	for _, item := range g.Items {
		order.Lines = append(order.Lines, OrderLine{
			ProductID:  item.ProductID,
			Quantity:   item.SuggestedQuantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return order, nil
}

// Discard removes a supplier group, typically after its order was stored.
func (c *Cart) Discard(supplierID int64) {
	for i, g := range c.Groups {
		if g.SupplierID == supplierID {
			c.Groups = append(c.Groups[:i], c.Groups[i+1:]...)
			return
		}
	}
}

func (c *Cart) find(productID int64) (*SupplierGroup, int) {
	for _, g := range c.Groups {
		for i, item := range g.Items {
			if item.ProductID == productID {
				return g, i
			}
		}
	}
	return nil, -1
}

func lineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
