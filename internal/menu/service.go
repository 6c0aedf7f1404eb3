package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMenus(ctx context.Context, storeID int64) ([]Menu, error)
	GetMenu(ctx context.Context, storeID, menuID int64) (Menu, error)
}

// CostSource supplies ingredient costs, normally the inventory service.
type CostSource interface {
	UnitCosts(ctx context.Context, storeID int64, productIDs []int64) (map[int64]inventory.UnitCost, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached read models after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service manages menus and their costing.
type Service struct {
	repo        RepositoryPort
	costs       CostSource
	audit       AuditPort
	invalidator Invalidator
	calc        *Calculator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, costs CostSource, audit AuditPort, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		costs:       costs,
		audit:       audit,
		invalidator: invalidator,
		calc:        NewCalculator(logger),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the store's menus with costing.
func (s *Service) List(ctx context.Context, storeID int64) ([]View, error) {
	menus, err := s.repo.ListMenus(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("menu: list: %w", err)
	}
	costs, err := s.costs.UnitCosts(ctx, storeID, nil)
	if err != nil {
		return nil, fmt.Errorf("menu: unit costs: %w", err)
	}
	views := make([]View, 0, len(menus))
	for _, m := range menus {
		views = append(views, View{Menu: m, Costing: s.calc.Cost(m.Price, costLines(m.Lines, costs))})
	}
	return views, nil
}

// Get returns one menu with costing.
func (s *Service) Get(ctx context.Context, storeID, menuID int64) (View, error) {
	m, err := s.repo.GetMenu(ctx, storeID, menuID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, m)
}

// Create adds a menu without recipe lines.
func (s *Service) Create(ctx context.Context, storeID int64, input MenuInput) (Menu, error) {
	if err := validateMenuInput(input); err != nil {
		return Menu{}, err
	}
	var created Menu
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.CreateMenu(ctx, Menu{
			StoreID:   storeID,
			Name:      input.Name,
			Category:  input.Category,
			Price:     input.Price,
			UpdatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return Menu{}, err
	}
	s.afterMutation(ctx, storeID, "MENU_CREATE", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Update replaces name, category and price of a menu.
func (s *Service) Update(ctx context.Context, storeID, menuID int64, input MenuInput) (Menu, error) {
	if err := validateMenuInput(input); err != nil {
		return Menu{}, err
	}
	var updated Menu
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetMenuForUpdate(ctx, storeID, menuID)
		if err != nil {
			return err
		}
		existing.Name = input.Name
		existing.Category = input.Category
		existing.Price = input.Price
		existing.UpdatedAt = s.now()
		updated = existing
		return tx.UpdateMenu(ctx, existing)
	})
	if err != nil {
		return Menu{}, err
	}
	s.afterMutation(ctx, storeID, "MENU_UPDATE", menuID, map[string]any{"price": updated.Price.String()})
	return updated, nil
}

// AddRecipeLine adds an ingredient to a menu's recipe.
func (s *Service) AddRecipeLine(ctx context.Context, storeID, menuID int64, input RecipeLineInput) (View, error) {
	if err := shared.Validate(input); err != nil {
		return View{}, err
	}
	costs, err := s.costs.UnitCosts(ctx, storeID, nil)
	if err != nil {
		return View{}, fmt.Errorf("menu: unit costs: %w", err)
	}
	if _, ok := costs[input.ProductID]; !ok {
		return View{}, ErrUnknownProduct
	}
	var (
		m     Menu
		draft *Draft
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		m, err = tx.GetMenuForUpdate(ctx, storeID, menuID)
		if err != nil {
			return err
		}
		draft = NewDraft(s.calc, costLines(m.Lines, costs)...)
		if err := draft.AddLine(ingredientFor(input.ProductID, costs), input.Quantity, input.Unit); err != nil {
			return err
		}
		line := RecipeLine{MenuID: menuID, ProductID: input.ProductID, QuantityRequired: input.Quantity, Unit: input.Unit}
		m.Lines = append(m.Lines, line)
		return tx.InsertLine(ctx, line)
	})
	if err != nil {
		return View{}, err
	}
	s.afterMutation(ctx, storeID, "MENU_RECIPE_ADD", menuID, map[string]any{"product_id": input.ProductID})
	return View{Menu: m, Costing: draft.Costing(m.Price)}, nil
}

// RemoveRecipeLine removes an ingredient from a menu's recipe. A product
// that is not in the recipe yields ErrLineNotFound without touching storage.
func (s *Service) RemoveRecipeLine(ctx context.Context, storeID, menuID, productID int64) (View, error) {
	costs, err := s.costs.UnitCosts(ctx, storeID, nil)
	if err != nil {
		return View{}, fmt.Errorf("menu: unit costs: %w", err)
	}
	var (
		m     Menu
		draft *Draft
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		m, err = tx.GetMenuForUpdate(ctx, storeID, menuID)
		if err != nil {
			return err
		}
		draft = NewDraft(s.calc, costLines(m.Lines, costs)...)
		if err := draft.RemoveLine(productID); err != nil {
			return err
		}
		if err := tx.DeleteLine(ctx, menuID, productID); err != nil {
			return err
		}
		m.Lines = recipeLines(menuID, draft.Lines())
		return nil
	})
	if err != nil {
		return View{}, err
	}
	s.afterMutation(ctx, storeID, "MENU_RECIPE_REMOVE", menuID, map[string]any{"product_id": productID})
	return View{Menu: m, Costing: draft.Costing(m.Price)}, nil
}

func (s *Service) view(ctx context.Context, m Menu) (View, error) {
	ids := make([]int64, 0, len(m.Lines))
	for _, line := range m.Lines {
		ids = append(ids, line.ProductID)
	}
	costs := map[int64]inventory.UnitCost{}
	if len(ids) > 0 {
		var err error
		costs, err = s.costs.UnitCosts(ctx, m.StoreID, ids)
		if err != nil {
			return View{}, fmt.Errorf("menu: unit costs: %w", err)
		}
	}
	return View{Menu: m, Costing: s.calc.Cost(m.Price, costLines(m.Lines, costs))}, nil
}

func (s *Service) afterMutation(ctx context.Context, storeID int64, action string, menuID int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			StoreID:  storeID,
			Action:   action,
			Entity:   "menu",
			EntityID: strconv.FormatInt(menuID, 10),
			Meta:     meta,
			At:       s.now(),
		}); err != nil {
			s.logger.Warn("menu audit", slog.Any("error", err))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("menu cache bump", slog.Any("error", err))
		}
	}
}

func validateMenuInput(input MenuInput) error {
	if err := shared.Validate(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return shared.NewValidationError("price", "must be at least 0")
	}
	return nil
}

// ingredientFor resolves a product against the cost lookup. Products without
// a unit cost become UnresolvedIngredient.
func ingredientFor(productID int64, costs map[int64]inventory.UnitCost) Ingredient {
	c, ok := costs[productID]
	if !ok || !c.Cost.Valid {
		return UnresolvedIngredient{ProductID: productID, Name: c.Name}
	}
	return ResolvedIngredient{ProductID: productID, Name: c.Name, Unit: c.Unit, UnitCost: c.Cost.Decimal}
}

func costLines(lines []RecipeLine, costs map[int64]inventory.UnitCost) []CostLine {
	out := make([]CostLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, CostLine{
			Ingredient: ingredientFor(line.ProductID, costs),
			Quantity:   line.QuantityRequired,
			Unit:       line.Unit,
		})
	}
	return out
}

func recipeLines(menuID int64, lines []CostLine) []RecipeLine {
	out := make([]RecipeLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, RecipeLine{
			MenuID:           menuID,
			ProductID:        line.Ingredient.ProductRef(),
			QuantityRequired: line.Quantity,
			Unit:             line.Unit,
		})
	}
	return out
}
