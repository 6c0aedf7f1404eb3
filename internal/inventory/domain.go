package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// Item is one product stocked by one store.
type Item struct {
	ProductID      int64               `json:"product_id"`
	StoreID        int64               `json:"store_id"`
	SKU            string              `json:"sku"`
	Name           string              `json:"name"`
	Unit           string              `json:"unit"`
	CurrentStock   int                 `json:"current_stock"`
	MinimumStock   int                 `json:"minimum_stock"`
	MaximumStock   int                 `json:"maximum_stock"`
	ExpirationDate *time.Time          `json:"expiration_date,omitempty"`
	UnitCost       decimal.NullDecimal `json:"unit_cost"`
	SupplierID     int64               `json:"supplier_id,omitempty"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Snapshot returns the stock levels of the item.
func (i Item) Snapshot() StockSnapshot {
	return StockSnapshot{Current: i.CurrentStock, Minimum: i.MinimumStock, Maximum: i.MaximumStock}
}

// ItemView is an Item with its evaluated stock status.
type ItemView struct {
	Item
	Status            StockStatus `json:"status"`
	SuggestedQuantity int         `json:"suggested_quantity"`
	DaysToExpiration  int         `json:"days_to_expiration"`
	RiskTier          RiskTier    `json:"risk_tier"`
}

// ItemInput carries the editable fields of an item.
type ItemInput struct {
	SKU            string           `json:"sku" validate:"max=64"`
	Name           string           `json:"name" validate:"required,max=200"`
	Unit           string           `json:"unit" validate:"required,max=20"`
	CurrentStock   int              `json:"current_stock" validate:"gte=0"`
	MinimumStock   int              `json:"minimum_stock" validate:"gte=0"`
	MaximumStock   int              `json:"maximum_stock" validate:"gte=0,gtefield=MinimumStock"`
	ExpirationDate *Date            `json:"expiration_date"`
	UnitCost       *decimal.Decimal `json:"unit_cost"`
	SupplierID     int64            `json:"supplier_id" validate:"gte=0"`
}

// Date is an expiration date accepted as "2006-01-02" (midnight UTC) or as
// an RFC 3339 timestamp.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate wraps t.
func NewDate(t time.Time) *Date { return &Date{Time: t} }

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("expiration_date: %w", err)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("expiration_date: want YYYY-MM-DD or RFC 3339, got %q", raw)
	}
	d.Time = t
	return nil
}

// Ptr returns the date as a *time.Time, nil for a nil Date.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// AdjustmentInput describes a manual or sales-driven stock change.
type AdjustmentInput struct {
	Delta     int    `json:"delta"`
	Reason    string `json:"reason" validate:"required,oneof=manual sale receipt waste count"`
	Reference string `json:"reference" validate:"max=100"`
}

// Movement records one applied adjustment.
type Movement struct {
	ID        int64     `json:"id"`
	StoreID   int64     `json:"store_id"`
	ProductID int64     `json:"product_id"`
	Delta     int       `json:"delta"`
	Balance   int       `json:"balance"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UnitCost is the cost lookup result used by menu costing.
type UnitCost struct {
	ProductID int64
	Name      string
	Unit      string
	Cost      decimal.NullDecimal
}

var (
	// ErrItemNotFound indicates the product is not stocked by the store.
	ErrItemNotFound = fmt.Errorf("inventory: item %w", shared.ErrNotFound)
	// ErrDuplicateSKU indicates the SKU is already used in the store.
	ErrDuplicateSKU = fmt.Errorf("inventory: duplicate sku: %w", shared.ErrConflict)
	// ErrZeroAdjustment indicates an adjustment without effect.
	ErrZeroAdjustment = shared.NewValidationError("delta", "must be non zero")
)
