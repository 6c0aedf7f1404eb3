// Package menu keeps store menus with their recipes and computes what each
// menu costs to make.
package menu

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Ingredient is a recipe product whose unit cost is either known or not.
type Ingredient interface {
	ProductRef() int64
	isIngredient()
}

// ResolvedIngredient has a known unit cost.
type ResolvedIngredient struct {
	ProductID int64
	Name      string
	Unit      string
	UnitCost  decimal.Decimal
}

// UnresolvedIngredient refers to a product without cost data.
type UnresolvedIngredient struct {
	ProductID int64
	Name      string
}

func (i ResolvedIngredient) ProductRef() int64   { return i.ProductID }
func (i UnresolvedIngredient) ProductRef() int64 { return i.ProductID }
func (ResolvedIngredient) isIngredient()         {}
func (UnresolvedIngredient) isIngredient()       {}

// CostLine pairs an ingredient with the quantity one menu unit consumes.
type CostLine struct {
	Ingredient Ingredient
	Quantity   decimal.Decimal
	Unit       string
}

// Costing summarises the economics of one menu.
type Costing struct {
	TotalCost   decimal.Decimal     `json:"total_cost"`
	DisplayCost string              `json:"display_cost"`
	Profit      decimal.Decimal     `json:"profit"`
	Margin      decimal.NullDecimal `json:"profit_margin"`
	// Partial is set when at least one ingredient had no cost.
	Partial bool `json:"partial"`
}

var hundred = decimal.NewFromInt(100)

// Calculator computes recipe costs.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator builds a Calculator logging to logger.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// LineCost is unit cost times quantity. Unresolved ingredients cost zero.
func (c *Calculator) LineCost(line CostLine) decimal.Decimal {
	switch ing := line.Ingredient.(type) {
	case ResolvedIngredient:
		return ing.UnitCost.Mul(line.Quantity)
	case UnresolvedIngredient:
		c.logger.Warn("ingredient cost unknown, counted as zero",
			slog.Int64("product_id", ing.ProductID),
			slog.String("name", ing.Name))
	default:
		c.logger.Warn("recipe line without ingredient, counted as zero")
	}
	return decimal.Zero
}

// TotalCost sums the line costs.
func (c *Calculator) TotalCost(lines []CostLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(c.LineCost(line))
	}
	return total
}

// Cost computes the full costing of a recipe sold at price.
func (c *Calculator) Cost(price decimal.Decimal, lines []CostLine) Costing {
	return NewDraft(c, lines...).Costing(price)
}

// Profit is price minus total cost.
func Profit(price, totalCost decimal.Decimal) decimal.Decimal {
	return price.Sub(totalCost)
}

// Margin is profit as a percentage of price rounded to one decimal. It is
// undefined unless price is positive.
func Margin(price, profit decimal.Decimal) decimal.NullDecimal {
	if !price.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(profit.Div(price).Mul(hundred).Round(1))
}

// Draft is a recipe under edit with a running total cost.
type Draft struct {
	calc  *Calculator
	lines []CostLine
	total decimal.Decimal
}

// NewDraft starts a draft from existing lines.
func NewDraft(calc *Calculator, lines ...CostLine) *Draft {
	return &Draft{calc: calc, lines: append([]CostLine(nil), lines...), total: calc.TotalCost(lines)}
}

// AddLine appends an ingredient. The quantity must be positive and the
// product must not already be in the draft.
func (d *Draft) AddLine(ing Ingredient, qty decimal.Decimal, unit string) error {
	if !qty.IsPositive() {
		return ErrNonPositiveQuantity
	}
	if d.index(ing.ProductRef()) >= 0 {
		return ErrDuplicateIngredient
	}
	line := CostLine{Ingredient: ing, Quantity: qty, Unit: unit}
	d.lines = append(d.lines, line)
	d.total = d.total.Add(d.calc.LineCost(line))
	return nil
}

// RemoveLine drops the product's line and subtracts its cost.
func (d *Draft) RemoveLine(productID int64) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	d.total = d.total.Sub(d.calc.LineCost(d.lines[i]))
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	return nil
}

// Costing reports the draft at price using the running total.
func (d *Draft) Costing(price decimal.Decimal) Costing {
	profit := Profit(price, d.total)
	out := Costing{
		TotalCost:   d.total,
		DisplayCost: FormatCost(d.total),
		Profit:      profit,
		Margin:      Margin(price, profit),
	}
	for _, line := range d.lines {
		if _, ok := line.Ingredient.(ResolvedIngredient); !ok {
			out.Partial = true
			break
		}
	}
	return out
}

// Lines returns a copy of the draft lines.
func (d *Draft) Lines() []CostLine {
	return append([]CostLine(nil), d.lines...)
}

func (d *Draft) index(productID int64) int {
	for i, line := range d.lines {
		if line.Ingredient.ProductRef() == productID {
			return i
		}
	}
	return -1
}

// FormatCost renders a cost for display: two decimals below one unit,
// whole units otherwise.
func FormatCost(d decimal.Decimal) string {
	if d.LessThan(decimal.NewFromInt(1)) {
		return d.StringFixed(2)
	}
	return d.StringFixed(0)
}
