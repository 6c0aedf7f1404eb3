package inventory

import (
	"sort"
	"time"
)

// DefaultExpirationHorizon is assumed for items without an expiration date.
const DefaultExpirationHorizon = 30 * 24 * time.Hour

// RiskTier is the urgency of an upcoming expiration.
type RiskTier string

const (
	RiskExpired  RiskTier = "expired"
	RiskCritical RiskTier = "critical"
	RiskHigh     RiskTier = "high"
	RiskMedium   RiskTier = "medium"
	RiskLow      RiskTier = "low"
)

// RiskTiers lists every tier from most to least urgent.
var RiskTiers = []RiskTier{RiskExpired, RiskCritical, RiskHigh, RiskMedium, RiskLow}

// Priority orders tiers, 1 being the most urgent.
func (t RiskTier) Priority() int {
	switch t {
	case RiskExpired:
		return 1
	case RiskCritical:
		return 2
	case RiskHigh:
		return 3
	case RiskMedium:
		return 4
	case RiskLow:
		return 5
	}
	return 6
}

// Valid reports whether t is a known tier.
func (t RiskTier) Valid() bool {
	return t.Priority() <= 5
}

// RiskRecord is the expiration risk of one product at evaluation time.
type RiskRecord struct {
	ProductID           int64      `json:"product_id"`
	Name                string     `json:"name,omitempty"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`
	DaysUntilExpiration int        `json:"days_until_expiration"`
	Tier                RiskTier   `json:"risk_tier"`
}

const day = 24 * time.Hour

// DaysUntilExpiration returns ceil((expiresAt - now) / 1 day). A nil date is
// treated as now + DefaultExpirationHorizon.
func DaysUntilExpiration(expiresAt *time.Time, now time.Time) int {
	exp := now.Add(DefaultExpirationHorizon)
	if expiresAt != nil {
		exp = *expiresAt
	}
	d := exp.Sub(now)
	days := d / day
	// integer division truncates toward zero, which is already the ceiling
	// for negative remainders
	if d%day > 0 {
		days++
	}
	return int(days)
}

// TierForDays maps remaining days to a tier.
func TierForDays(days int) RiskTier {
	switch {
	case days < 0:
		return RiskExpired
	case days <= 1:
		return RiskCritical
	case days <= 3:
		return RiskHigh
	case days <= 7:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifyExpiration builds the risk record of one product.
func ClassifyExpiration(productID int64, expiresAt *time.Time, now time.Time) RiskRecord {
	days := DaysUntilExpiration(expiresAt, now)
	return RiskRecord{
		ProductID:           productID,
		ExpirationDate:      expiresAt,
		DaysUntilExpiration: days,
		Tier:                TierForDays(days),
	}
}

// SortByUrgency orders records most urgent first: tier priority, then
// remaining days. Equal records keep their relative order.
func SortByUrgency(records []RiskRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := records[i].Tier.Priority(), records[j].Tier.Priority()
		if pi != pj {
			return pi < pj
		}
		return records[i].DaysUntilExpiration < records[j].DaysUntilExpiration
	})
}
