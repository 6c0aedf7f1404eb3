package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

type countingInvalidator struct {
	bumps int
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(t *testing.T) (*Service, *countingInvalidator, *recordingAudit) {
	t.Helper()
	inv := &countingInvalidator{}
	audit := &recordingAudit{}
	svc := NewService(NewMemoryRepository(), audit, inv, ServiceConfig{
		Clock: func() time.Time { return evalNow },
	})
	return svc, inv, audit
}

func ptrDecimal(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateItemValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, 1, ItemInput{Name: "Milk", Unit: "l", CurrentStock: -1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(ctx, 1, ItemInput{Name: "Milk", Unit: "l", MinimumStock: 10, MaximumStock: 5})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(ctx, 1, ItemInput{Name: "Milk", Unit: "l", MaximumStock: 5, UnitCost: ptrDecimal("-1")})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(ctx, 1, ItemInput{Unit: "l"})
	var fieldErrs shared.ValidationErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Contains(t, fieldErrs.Fields(), "name")
}

func TestListItemsEvaluatesStatus(t *testing.T) {
	svc, inv, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, 1, ItemInput{Name: "Eggs", Unit: "pcs", CurrentStock: 3, MinimumStock: 10, MaximumStock: 60})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, 1, ItemInput{Name: "Flour", Unit: "kg", CurrentStock: 0, MinimumStock: 5, MaximumStock: 30})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, 1, ItemInput{Name: "Cream", Unit: "l", CurrentStock: 8, MinimumStock: 2, MaximumStock: 10,
		ExpirationDate: NewDate(evalNow.AddDate(0, 0, -2))})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, 2, ItemInput{Name: "Other store", Unit: "pcs", CurrentStock: 1, MinimumStock: 1, MaximumStock: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, inv.bumps)
	assert.Len(t, audit.logs, 4)

	views, err := svc.ListItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byName := map[string]ItemView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, StockLow, byName["Eggs"].Status)
	assert.Equal(t, 17, byName["Eggs"].SuggestedQuantity)
	assert.Equal(t, StockCritical, byName["Flour"].Status)
	assert.Equal(t, 10, byName["Flour"].SuggestedQuantity)
	assert.Equal(t, StockExpired, byName["Cream"].Status)
	assert.Equal(t, 0, byName["Cream"].SuggestedQuantity)
	assert.Equal(t, RiskExpired, byName["Cream"].RiskTier)

	low, err := svc.LowStock(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, low, 2)
}

func TestExpirationRisksSortedAndFiltered(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mk := func(name string, exp *Date) {
		_, err := svc.CreateItem(ctx, 1, ItemInput{Name: name, Unit: "pcs", CurrentStock: 5, MinimumStock: 1, MaximumStock: 10, ExpirationDate: exp})
		require.NoError(t, err)
	}
	mk("No date", nil)
	mk("Week", NewDate(evalNow.AddDate(0, 0, 6)))
	mk("Gone", NewDate(evalNow.AddDate(0, 0, -3)))
	mk("Tomorrow", NewDate(evalNow.AddDate(0, 0, 1)))

	records, err := svc.ExpirationRisks(ctx, 1, "")
	require.NoError(t, err)
	names := []string{}
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Gone", "Tomorrow", "Week", "No date"}, names)

	records, err = svc.ExpirationRisks(ctx, 1, RiskCritical)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Tomorrow", records[0].Name)

	_, err = svc.ExpirationRisks(ctx, 1, RiskTier("soon"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAdjustClampsAtZero(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, 1, ItemInput{Name: "Butter", Unit: "pcs", CurrentStock: 4, MinimumStock: 2, MaximumStock: 20})
	require.NoError(t, err)

	mv, err := svc.Adjust(ctx, 1, item.ProductID, AdjustmentInput{Delta: -10, Reason: "sale"})
	require.NoError(t, err)
	assert.Equal(t, -4, mv.Delta)
	assert.Equal(t, 0, mv.Balance)

	mv, err = svc.Adjust(ctx, 1, item.ProductID, AdjustmentInput{Delta: 6, Reason: "receipt", Reference: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, 6, mv.Balance)

	_, err = svc.Adjust(ctx, 1, item.ProductID, AdjustmentInput{Delta: 0, Reason: "manual"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Adjust(ctx, 1, item.ProductID, AdjustmentInput{Delta: 1, Reason: "gift"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Adjust(ctx, 2, item.ProductID, AdjustmentInput{Delta: 1, Reason: "manual"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	moves, err := svc.ListMovements(ctx, 1, item.ProductID, 10)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "receipt", moves[0].Reason)
}

func TestDuplicateSKUConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, 1, ItemInput{SKU: "MLK-1", Name: "Milk", Unit: "l", MaximumStock: 5})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, 1, ItemInput{SKU: "MLK-1", Name: "Milk 2", Unit: "l", MaximumStock: 5})
	require.ErrorIs(t, err, shared.ErrConflict)
	_, err = svc.CreateItem(ctx, 2, ItemInput{SKU: "MLK-1", Name: "Milk", Unit: "l", MaximumStock: 5})
	require.NoError(t, err)
}

func TestUnitCosts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateItem(ctx, 1, ItemInput{Name: "Potato", Unit: "kg", MaximumStock: 5, UnitCost: ptrDecimal("120")})
	require.NoError(t, err)
	b, err := svc.CreateItem(ctx, 1, ItemInput{Name: "Mayo", Unit: "g", MaximumStock: 5})
	require.NoError(t, err)

	costs, err := svc.UnitCosts(ctx, 1, []int64{a.ProductID, b.ProductID, 999})
	require.NoError(t, err)
	require.Len(t, costs, 2)
	assert.True(t, costs[a.ProductID].Cost.Valid)
	assert.True(t, costs[a.ProductID].Cost.Decimal.Equal(decimal.NewFromInt(120)))
	assert.False(t, costs[b.ProductID].Cost.Valid)
}
