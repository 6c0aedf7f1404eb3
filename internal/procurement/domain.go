package procurement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderOrdered   OrderStatus = "ordered"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderOrdered, OrderCancelled},
	OrderOrdered: {OrderReceived, OrderCancelled},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReorderSuggestion is one cart line proposed for a low or critical item.
type ReorderSuggestion struct {
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Unit              string          `json:"unit"`
	SupplierID        int64           `json:"supplier_id"`
	SupplierName      string          `json:"supplier_name,omitempty"`
	CurrentStock      int             `json:"current_stock"`
	MinimumStock      int             `json:"minimum_stock"`
	SuggestedQuantity int             `json:"suggested_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

// SupplierGroup collects the suggestions ordered from one supplier.
type SupplierGroup struct {
	SupplierID      int64               `json:"supplier_id"`
	SupplierName    string              `json:"supplier_name,omitempty"`
	OrderContactURL string              `json:"order_contact_url,omitempty"`
	Items           []ReorderSuggestion `json:"items"`
	GroupTotal      decimal.Decimal     `json:"group_total"`
}

// Cart is a store's editable set of reorder suggestions.
type Cart struct {
	StoreID     int64            `json:"store_id"`
	Revision    string           `json:"revision"`
	Version     int64            `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	Groups      []*SupplierGroup `json:"groups"`
}

// FinalizeInput selects the supplier group to turn into an order.
type FinalizeInput struct {
	SupplierID       int64      `json:"supplier_id"`
	ExpectedDelivery *time.Time `json:"expected_delivery"`
	Notes            string     `json:"notes" validate:"max=1000"`
}

// QuantityInput edits one cart line.
type QuantityInput struct {
	Quantity int `json:"quantity"`
}

// StatusInput moves an order along its lifecycle.
type StatusInput struct {
	Status OrderStatus `json:"status" validate:"required,oneof=ordered received cancelled"`
}

// Order is a persisted purchase order header.
type Order struct {
	ID               int64           `json:"id"`
	Number           string          `json:"number"`
	StoreID          int64           `json:"store_id"`
	SupplierID       int64           `json:"supplier_id"`
	Status           OrderStatus     `json:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	OrderDate        time.Time       `json:"order_date"`
	ExpectedDelivery time.Time       `json:"expected_delivery"`
	Notes            string          `json:"notes,omitempty"`
	Lines            []OrderLine     `json:"lines,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderLine is one product on a purchase order.
type OrderLine struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

var (
	// ErrCartNotFound indicates no cart was generated for the store.
	ErrCartNotFound = fmt.Errorf("procurement: cart %w", shared.ErrNotFound)
	// ErrCartConflict indicates the cart was saved by someone else since it
	// was loaded.
	ErrCartConflict = fmt.Errorf("procurement: cart changed concurrently: %w", shared.ErrConflict)
	// ErrLineNotFound indicates the product is not in the cart.
	ErrLineNotFound = fmt.Errorf("procurement: cart line %w", shared.ErrNotFound)
	// ErrOrderNotFound indicates the order does not belong to the store.
	ErrOrderNotFound = fmt.Errorf("procurement: order %w", shared.ErrNotFound)
	// ErrInvalidTransition occurs when action violates status workflow.
	ErrInvalidTransition = fmt.Errorf("procurement: invalid status transition: %w", shared.ErrConflict)

	ErrNegativeQuantity     = shared.NewValidationError("quantity", "must not be negative")
	ErrSupplierRequired     = shared.NewValidationError("supplier_id", "select a supplier")
	ErrDeliveryDateRequired = shared.NewValidationError("expected_delivery", "expected delivery date is required")
	ErrEmptyOrder           = shared.NewValidationError("items", "the supplier has no items in the cart")
)
