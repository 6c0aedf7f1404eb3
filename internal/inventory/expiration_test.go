package inventory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForDaysBoundaries(t *testing.T) {
	cases := map[int]RiskTier{
		-1: RiskExpired,
		0:  RiskCritical,
		1:  RiskCritical,
		2:  RiskHigh,
		3:  RiskHigh,
		4:  RiskMedium,
		7:  RiskMedium,
		8:  RiskLow,
		30: RiskLow,
	}
	for days, want := range cases {
		assert.Equal(t, want, TierForDays(days), "days=%d", days)
	}
}

func TestDaysUntilExpiration(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := today.Add(9 * time.Hour)

	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)
	exactlyOneDay := now.Add(24 * time.Hour)

	assert.Equal(t, 0, DaysUntilExpiration(&today, now))
	assert.Equal(t, 1, DaysUntilExpiration(&tomorrow, now))
	assert.Equal(t, -1, DaysUntilExpiration(&yesterday, now))
	assert.Equal(t, 1, DaysUntilExpiration(&exactlyOneDay, now))
	assert.Equal(t, 30, DaysUntilExpiration(nil, now))
}

func TestClassifyExpirationScenarios(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)
	yesterday := now.AddDate(0, 0, -1)
	today := now

	rec := ClassifyExpiration(1, &tomorrow, now)
	assert.Equal(t, 1, rec.DaysUntilExpiration)
	assert.Equal(t, RiskCritical, rec.Tier)

	rec = ClassifyExpiration(2, &yesterday, now)
	assert.Equal(t, -1, rec.DaysUntilExpiration)
	assert.Equal(t, RiskExpired, rec.Tier)

	rec = ClassifyExpiration(3, &today, now)
	assert.Equal(t, 0, rec.DaysUntilExpiration)
	assert.Equal(t, RiskCritical, rec.Tier)

	rec = ClassifyExpiration(4, nil, now)
	assert.Equal(t, RiskLow, rec.Tier)
}

func TestSortByUrgency(t *testing.T) {
	records := []RiskRecord{
		{ProductID: 1, DaysUntilExpiration: 12, Tier: RiskLow},
		{ProductID: 2, DaysUntilExpiration: 3, Tier: RiskHigh},
		{ProductID: 3, DaysUntilExpiration: -4, Tier: RiskExpired},
		{ProductID: 4, DaysUntilExpiration: 2, Tier: RiskHigh},
		{ProductID: 5, DaysUntilExpiration: 0, Tier: RiskCritical},
		{ProductID: 6, DaysUntilExpiration: -1, Tier: RiskExpired},
		{ProductID: 7, DaysUntilExpiration: 5, Tier: RiskMedium},
	}
	SortByUrgency(records)

	order := make([]int64, 0, len(records))
	for _, r := range records {
		order = append(order, r.ProductID)
	}
	require.Equal(t, []int64{3, 6, 5, 4, 2, 7, 1}, order)
}

func TestRiskTierValid(t *testing.T) {
	for _, tier := range RiskTiers {
		assert.True(t, tier.Valid())
	}
	assert.False(t, RiskTier("urgent").Valid())
}

func TestDateAcceptsDayAndTimestamp(t *testing.T) {
	var in struct {
		Day   *Date `json:"day"`
		Stamp *Date `json:"stamp"`
		None  *Date `json:"none"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2025-03-10","stamp":"2025-03-10T09:30:00+09:00","none":null}`), &in))
	assert.True(t, in.Day.Ptr().Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, in.Stamp.Ptr().Equal(time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)))
	assert.Nil(t, in.None.Ptr())

	var bad struct {
		Day *Date `json:"day"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"day":"tomorrow"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"day":20250310}`), &bad))
}
