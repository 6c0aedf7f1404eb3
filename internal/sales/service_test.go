package sales

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

type salesFixture struct {
	svc    *Service
	inv    *inventory.Service
	menus  *menu.Service
	repo   *MemoryRepository
	potato int64
	mayo   int64
	salad  int64
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()
	ctx := context.Background()
	logger := quietLogger()
	inv := inventory.NewService(inventory.NewMemoryRepository(), nil, nil, inventory.ServiceConfig{
		Logger: logger,
		Clock:  func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	})
	menus := menu.NewService(menu.NewMemoryRepository(), inv, nil, nil, logger)

	cost := decimal.RequireFromString("40")
	potato, err := inv.CreateItem(ctx, 1, inventory.ItemInput{Name: "Potato", Unit: "pc", CurrentStock: 10, MinimumStock: 2, MaximumStock: 30, UnitCost: &cost})
	require.NoError(t, err)
	mayo, err := inv.CreateItem(ctx, 1, inventory.ItemInput{Name: "Mayonnaise", Unit: "pack", CurrentStock: 1, MinimumStock: 1, MaximumStock: 5, UnitCost: &cost})
	require.NoError(t, err)

	salad, err := menus.Create(ctx, 1, menu.MenuInput{Name: "ポテトサラダ", Price: decimal.RequireFromString("450")})
	require.NoError(t, err)
	_, err = menus.AddRecipeLine(ctx, 1, salad.ID, menu.RecipeLineInput{ProductID: potato.ProductID, Quantity: decimal.RequireFromString("1.5"), Unit: "pc"})
	require.NoError(t, err)
	_, err = menus.AddRecipeLine(ctx, 1, salad.ID, menu.RecipeLineInput{ProductID: mayo.ProductID, Quantity: decimal.RequireFromString("0.3"), Unit: "pack"})
	require.NoError(t, err)
	_, err = menus.Create(ctx, 1, menu.MenuInput{Name: "唐揚げ定食", Price: decimal.RequireFromString("900")})
	require.NoError(t, err)

	repo := NewMemoryRepository()
	return &salesFixture{
		svc:    NewService(repo, menus, inv, nil, logger),
		inv:    inv,
		menus:  menus,
		repo:   repo,
		potato: potato.ProductID,
		mayo:   mayo.ProductID,
		salad:  salad.ID,
	}
}

func TestPreviewMatchesAndFlagsReview(t *testing.T) {
	f := newSalesFixture(t)
	details, err := f.svc.Preview(context.Background(), 1, PreviewRequest{Lines: []ReceiptLine{
		{Name: "ポテト サラダ", Quantity: 2, UnitPrice: decimal.RequireFromString("450")},
		{Name: "ポテサラ", Quantity: 1, UnitPrice: decimal.RequireFromString("450")},
		{Name: "Coffee", Quantity: 1, UnitPrice: decimal.RequireFromString("300")},
	}})
	require.NoError(t, err)
	require.Len(t, details, 3)

	require.NotNil(t, details[0].MenuID)
	assert.Equal(t, f.salad, *details[0].MenuID)
	assert.True(t, details[0].IsMatched)
	assert.InDelta(t, 1.0, details[0].Similarity, 1e-9)
	assert.True(t, details[0].Subtotal.Equal(decimal.RequireFromString("900")))

	assert.Nil(t, details[1].MenuID)
	assert.True(t, details[1].RequiresReview)
	require.NotEmpty(t, details[1].Candidates)
	assert.Equal(t, f.salad, details[1].Candidates[0].MenuID)
	assert.False(t, details[1].Candidates[0].SuggestedMatch)

	assert.True(t, details[2].RequiresReview)
	assert.Empty(t, details[2].Candidates)

	sales, err := f.repo.List(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestPreviewValidation(t *testing.T) {
	f := newSalesFixture(t)
	_, err := f.svc.Preview(context.Background(), 1, PreviewRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.svc.Preview(context.Background(), 1, PreviewRequest{Lines: []ReceiptLine{{Name: "x", Quantity: 0}}})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordDeductsRecipeStock(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()

	res, err := f.svc.Record(ctx, 1, RecordRequest{Lines: []ReceiptLine{
		{Name: "ポテトサラダ", Quantity: 4, UnitPrice: decimal.RequireFromString("450")},
		{Name: "Coffee", Quantity: 1, UnitPrice: decimal.RequireFromString("300")},
	}})
	require.NoError(t, err)
	assert.NotZero(t, res.Sale.ID)
	assert.True(t, res.Sale.TotalAmount.Equal(decimal.RequireFromString("2100")))
	require.Len(t, res.Sale.Details, 2)
	assert.True(t, res.Sale.Details[1].RequiresReview)

	// 1.5×4 = 6 potatoes; 0.3×4 = 1.2 → 2 packs requested, clamped at 1.
	require.Len(t, res.Deductions, 2)
	assert.Equal(t, Deduction{ProductID: f.potato, Requested: 6, Applied: 6}, res.Deductions[0])
	assert.Equal(t, Deduction{ProductID: f.mayo, Requested: 2, Applied: 1}, res.Deductions[1])

	potato, err := f.inv.GetItem(ctx, 1, f.potato)
	require.NoError(t, err)
	assert.Equal(t, 4, potato.CurrentStock)
	mayo, err := f.inv.GetItem(ctx, 1, f.mayo)
	require.NoError(t, err)
	assert.Equal(t, 0, mayo.CurrentStock)

	sales, err := f.svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Len(t, sales[0].Details, 2)
}

func TestRecordManualMenuChoice(t *testing.T) {
	f := newSalesFixture(t)
	ctx := context.Background()

	salad := f.salad
	res, err := f.svc.Record(ctx, 1, RecordRequest{Lines: []ReceiptLine{
		{Name: "ポテサラ", Quantity: 1, UnitPrice: decimal.RequireFromString("450"), MenuID: &salad},
	}})
	require.NoError(t, err)
	assert.True(t, res.Sale.Details[0].IsMatched)
	assert.False(t, res.Sale.Details[0].RequiresReview)
	assert.Equal(t, Deduction{ProductID: f.potato, Requested: 2, Applied: 2}, res.Deductions[0])

	unknown := f.salad + 99
	_, err = f.svc.Record(ctx, 1, RecordRequest{Lines: []ReceiptLine{
		{Name: "ポテサラ", Quantity: 1, MenuID: &unknown},
	}})
	require.ErrorIs(t, err, ErrUnknownMenu)
	require.ErrorIs(t, err, shared.ErrValidation)

	sales, err := f.svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestRecordUsesExplicitSubtotalAndSoldAt(t *testing.T) {
	f := newSalesFixture(t)
	soldAt := time.Date(2025, 3, 9, 19, 30, 0, 0, time.UTC)
	res, err := f.svc.Record(context.Background(), 1, RecordRequest{
		SoldAt: &soldAt,
		Lines: []ReceiptLine{
			{Name: "唐揚げ定食", Quantity: 2, UnitPrice: decimal.RequireFromString("900"), Subtotal: decimal.RequireFromString("1700")},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Sale.SoldAt.Equal(soldAt))
	assert.True(t, res.Sale.TotalAmount.Equal(decimal.RequireFromString("1700")))
	assert.Empty(t, res.Deductions)
}
