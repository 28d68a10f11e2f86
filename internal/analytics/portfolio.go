package analytics

import "finboard/internal/core"

// AssetAllocation is the market value held in one asset type.
type AssetAllocation struct {
	AssetType core.AssetType `json:"assetType"`
	Value     core.Money     `json:"value"`
}

// PortfolioMetrics summarises a set of investments.
type PortfolioMetrics struct {
	TotalValue    core.Money        `json:"totalValue"`
	TotalCost     core.Money        `json:"totalCost"`
	TotalProfit   core.Money        `json:"totalProfit"`
	ReturnPercent float64           `json:"returnPercent"`
	ByAssetType   []AssetAllocation `json:"byAssetType"`
}

// Portfolio computes market value, cost basis and unrealized P/L. The return
// percentage is zero when the cost basis is zero.
func Portfolio(invs []core.Investment) PortfolioMetrics {
	var m PortfolioMetrics
	acc := newOrderedSums()
	for _, inv := range invs {
		value := inv.MarketValue()
		m.TotalValue = m.TotalValue.Add(value)
		m.TotalCost = m.TotalCost.Add(inv.Cost())
		acc.add(string(inv.AssetType), value.Cents)
	}
	m.TotalProfit = m.TotalValue.Sub(m.TotalCost)
	if m.TotalCost.Cents > 0 {
		m.ReturnPercent = float64(m.TotalProfit.Cents) / float64(m.TotalCost.Cents) * 100
	}
	m.ByAssetType = make([]AssetAllocation, 0, len(acc.keys))
	for _, k := range acc.keys {
		m.ByAssetType = append(m.ByAssetType, AssetAllocation{AssetType: core.AssetType(k), Value: core.Money{Cents: acc.sums[k]}})
	}
	return m
}
