package inventory

import "time"

// StockStatus classifies the stock level of one item.
type StockStatus string

const (
	StockExpired  StockStatus = "expired"
	StockCritical StockStatus = "critical"
	StockLow      StockStatus = "low"
	StockExcess   StockStatus = "excess"
	StockGood     StockStatus = "good"
)

// StockStatuses lists every status in display order.
var StockStatuses = []StockStatus{StockExpired, StockCritical, StockLow, StockGood, StockExcess}

// StockSnapshot holds the stock levels of one item. All values are expected
// to be non-negative and Maximum >= Minimum; callers validate before
// evaluating.
type StockSnapshot struct {
	Current int `json:"current_stock"`
	Minimum int `json:"minimum_stock"`
	Maximum int `json:"maximum_stock"`
}

// EvaluateStock classifies a snapshot. An expiration date before now wins
// over every stock level.
func EvaluateStock(s StockSnapshot, expiresAt *time.Time, now time.Time) StockStatus {
	switch {
	case expiresAt != nil && expiresAt.Before(now):
		return StockExpired
	case s.Current <= 0:
		return StockCritical
	case s.Current <= s.Minimum:
		return StockLow
	case s.Current >= s.Maximum:
		return StockExcess
	default:
		return StockGood
	}
}

// NeedsReorder reports whether a status calls for a purchase suggestion.
func NeedsReorder(status StockStatus) bool {
	return status == StockLow || status == StockCritical
}

// SuggestedReorderQuantity refills towards twice the minimum but never
// suggests less than the minimum itself. A zero minimum means no threshold
// is configured and yields 0.
func SuggestedReorderQuantity(s StockSnapshot) int {
	if s.Minimum <= 0 {
		return 0
	}
	return max(s.Minimum*2-s.Current, s.Minimum)
}
