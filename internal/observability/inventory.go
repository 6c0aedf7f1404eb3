package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics holds the gauges refreshed by the inventory scans.
type InventoryMetrics struct {
	expiration *prometheus.GaugeVec
	reorder    *prometheus.GaugeVec
}

// NewInventoryMetrics registers the inventory gauges on registerer.
func NewInventoryMetrics(registerer prometheus.Registerer) *InventoryMetrics {
	expiration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odyssey_inventory_expiration_items",
		Help: "Items per expiration risk tier at the last scan.",
	}, []string{"store", "tier"})
	reorder := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odyssey_inventory_reorder_lines",
		Help: "Items needing reorder at the last scan.",
	}, []string{"store"})
	registerer.MustRegister(expiration, reorder)
	return &InventoryMetrics{expiration: expiration, reorder: reorder}
}

// SetExpiration replaces the tier counts of one store. Tiers missing from
// counts are reported as zero.
func (m *InventoryMetrics) SetExpiration(storeID int64, tiers []string, counts map[string]int) {
	if m == nil {
		return
	}
	store := strconv.FormatInt(storeID, 10)
	for _, tier := range tiers {
		m.expiration.WithLabelValues(store, tier).Set(float64(counts[tier]))
	}
}

// SetReorderLines records how many items of a store need reordering.
func (m *InventoryMetrics) SetReorderLines(storeID int64, n int) {
	if m == nil {
		return
	}
	m.reorder.WithLabelValues(strconv.FormatInt(storeID, 10)).Set(float64(n))
}
