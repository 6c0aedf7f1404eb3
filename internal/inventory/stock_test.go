package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestEvaluateStockPrecedence(t *testing.T) {
	yesterday := evalNow.Add(-24 * time.Hour)
	tomorrow := evalNow.Add(24 * time.Hour)

	cases := []struct {
		name     string
		snapshot StockSnapshot
		expires  *time.Time
		want     StockStatus
	}{
		{"expired wins over empty stock", StockSnapshot{Current: 0, Minimum: 5, Maximum: 20}, &yesterday, StockExpired},
		{"expired wins over excess", StockSnapshot{Current: 50, Minimum: 5, Maximum: 20}, &yesterday, StockExpired},
		{"future expiration is ignored", StockSnapshot{Current: 10, Minimum: 5, Maximum: 20}, &tomorrow, StockGood},
		{"zero stock is critical", StockSnapshot{Current: 0, Minimum: 5, Maximum: 20}, nil, StockCritical},
		{"at minimum is low", StockSnapshot{Current: 5, Minimum: 5, Maximum: 20}, nil, StockLow},
		{"below minimum is low", StockSnapshot{Current: 1, Minimum: 5, Maximum: 20}, nil, StockLow},
		{"between is good", StockSnapshot{Current: 6, Minimum: 5, Maximum: 20}, nil, StockGood},
		{"at maximum is excess", StockSnapshot{Current: 20, Minimum: 5, Maximum: 20}, nil, StockExcess},
		{"above maximum is excess", StockSnapshot{Current: 25, Minimum: 5, Maximum: 20}, nil, StockExcess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateStock(tc.snapshot, tc.expires, evalNow))
		})
	}
}

func TestEvaluateStockMonotonic(t *testing.T) {
	for minimum := 0; minimum <= 6; minimum++ {
		for maximum := minimum; maximum <= 8; maximum++ {
			for current := 0; current <= 10; current++ {
				got := EvaluateStock(StockSnapshot{Current: current, Minimum: minimum, Maximum: maximum}, nil, evalNow)
				switch {
				case current == 0:
					require.Equal(t, StockCritical, got, "current=%d min=%d max=%d", current, minimum, maximum)
				case current <= minimum:
					require.Equal(t, StockLow, got, "current=%d min=%d max=%d", current, minimum, maximum)
				case current >= maximum:
					require.Equal(t, StockExcess, got, "current=%d min=%d max=%d", current, minimum, maximum)
				default:
					require.Equal(t, StockGood, got, "current=%d min=%d max=%d", current, minimum, maximum)
				}
			}
		}
	}
}

func TestSuggestedReorderQuantity(t *testing.T) {
	// low stock: max(20-3, 10)
	assert.Equal(t, 17, SuggestedReorderQuantity(StockSnapshot{Current: 3, Minimum: 10, Maximum: 40}))
	// critical: max(10-0, 5)
	assert.Equal(t, 10, SuggestedReorderQuantity(StockSnapshot{Current: 0, Minimum: 5, Maximum: 40}))
	// close to twice the floor falls back to the floor
	assert.Equal(t, 10, SuggestedReorderQuantity(StockSnapshot{Current: 10, Minimum: 10, Maximum: 40}))
	assert.Equal(t, 0, SuggestedReorderQuantity(StockSnapshot{Current: 0, Minimum: 0, Maximum: 10}))
}

func TestSuggestedQuantityNeverBelowMinimum(t *testing.T) {
	for minimum := 1; minimum <= 12; minimum++ {
		for current := 0; current <= minimum; current++ {
			s := StockSnapshot{Current: current, Minimum: minimum, Maximum: minimum * 3}
			status := EvaluateStock(s, nil, evalNow)
			require.True(t, NeedsReorder(status))
			require.GreaterOrEqual(t, SuggestedReorderQuantity(s), minimum)
		}
	}
}
