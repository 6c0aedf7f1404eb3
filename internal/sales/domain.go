package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/matching"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// ============================================================================
// RECEIPT INPUT
// ============================================================================

// ReceiptLine is one line read off a receipt.
type ReceiptLine struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// MenuID is a manual menu choice for a line that needed review.
	MenuID *int64 `json:"menu_id,omitempty" validate:"omitempty,gt=0"`
}

type PreviewRequest struct {
	Lines []ReceiptLine `json:"lines" validate:"required,min=1,dive"`
}

type RecordRequest struct {
	SoldAt *time.Time    `json:"sold_at"`
	Lines  []ReceiptLine `json:"lines" validate:"required,min=1,dive"`
}

// ============================================================================
// SALE
// ============================================================================

// Detail is a receipt line resolved against the menu.
type Detail struct {
	ID               int64                     `json:"id,omitempty"`
	SaleID           int64                     `json:"sale_id,omitempty"`
	MenuID           *int64                    `json:"menu_id"`
	MenuName         string                    `json:"menu_name,omitempty"`
	MenuNameDetected string                    `json:"menu_name_detected"`
	Quantity         int                       `json:"quantity"`
	UnitPrice        decimal.Decimal           `json:"unit_price"`
	Subtotal         decimal.Decimal           `json:"subtotal"`
	Similarity       float64                   `json:"similarity"`
	IsMatched        bool                      `json:"is_matched"`
	RequiresReview   bool                      `json:"requires_review"`
	Candidates       []matching.MatchCandidate `json:"candidates,omitempty"`
}

type Sale struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	SoldAt      time.Time       `json:"sold_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Details     []Detail        `json:"details"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Deduction is the stock consumed by a recorded sale for one product.
type Deduction struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Applied   int   `json:"applied"`
}

// RecordResult is a stored sale with the inventory it consumed.
type RecordResult struct {
	Sale       Sale        `json:"sale"`
	Deductions []Deduction `json:"deductions"`
}

var (
	ErrSaleNotFound = fmt.Errorf("sales: sale %w", shared.ErrNotFound)
	ErrUnknownMenu  = shared.NewValidationError("menu_id", "menu does not belong to this store")
)
