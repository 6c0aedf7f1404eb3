package menu

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// Menu is a dish or drink sold by a store.
type Menu struct {
	ID        int64           `json:"id"`
	StoreID   int64           `json:"store_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Lines     []RecipeLine    `json:"recipe_lines"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RecipeLine is the quantity of one product consumed per menu unit sold.
type RecipeLine struct {
	MenuID           int64           `json:"menu_id"`
	ProductID        int64           `json:"product_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	Unit             string          `json:"unit"`
}

// View is a menu together with its costing.
type View struct {
	Menu
	Costing Costing `json:"costing"`
}

// MenuInput carries editable menu fields.
type MenuInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Category string          `json:"category" validate:"max=100"`
	Price    decimal.Decimal `json:"price"`
}

// RecipeLineInput adds an ingredient to a menu.
type RecipeLineInput struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Quantity  decimal.Decimal `json:"quantity_required"`
	Unit      string          `json:"unit" validate:"required,max=20"`
}

var (
	// ErrMenuNotFound indicates the menu does not belong to the store.
	ErrMenuNotFound = fmt.Errorf("menu: %w", shared.ErrNotFound)
	// ErrLineNotFound indicates the product is not part of the recipe.
	ErrLineNotFound = fmt.Errorf("menu: recipe line %w", shared.ErrNotFound)
	// ErrNonPositiveQuantity rejects recipe lines that consume nothing.
	ErrNonPositiveQuantity = shared.NewValidationError("quantity_required", "must be greater than 0")
	// ErrDuplicateIngredient rejects a second line for the same product.
	ErrDuplicateIngredient = shared.NewValidationError("product_id", "ingredient is already in the recipe")
	// ErrUnknownProduct rejects products the store does not stock.
	ErrUnknownProduct = shared.NewValidationError("product_id", "product is not stocked by this store")
)
