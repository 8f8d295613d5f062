package valuation

import "github.com/shopspring/decimal"

// Aggregate holds the totals of an appraisal set. TotalUnitValue is a sum, not an average.
type Aggregate struct {
	TotalArea             decimal.Decimal
	TotalUnitValue        decimal.Decimal
	TotalBaseMarketValue  decimal.Decimal
	TotalDepreciationCost decimal.Decimal
	TotalMarketValue      decimal.Decimal
}

func zeroAggregate() Aggregate {
	return Aggregate{
		TotalArea:             decimal.Zero,
		TotalUnitValue:        decimal.Zero,
		TotalBaseMarketValue:  decimal.Zero,
		TotalDepreciationCost: decimal.Zero,
		TotalMarketValue:      decimal.Zero,
	}
}

// Aggregator owns the aggregate of one appraisal set.
type Aggregator struct {
	current Aggregate
}

func NewAggregator() *Aggregator {
	return &Aggregator{current: zeroAggregate()}
}

// Recompute replaces the owned aggregate with the totals of items.
// An empty sequence yields zero totals.
func (a *Aggregator) Recompute(items []*LineItem) Aggregate {
	agg := zeroAggregate()
	for _, item := range items {
		agg.TotalArea = agg.TotalArea.Add(item.Area())
		agg.TotalUnitValue = agg.TotalUnitValue.Add(item.UnitValue())
		agg.TotalBaseMarketValue = agg.TotalBaseMarketValue.Add(item.BaseMarketValue())
		agg.TotalDepreciationCost = agg.TotalDepreciationCost.Add(item.DepreciationCost())
		agg.TotalMarketValue = agg.TotalMarketValue.Add(item.MarketValue())
	}
	a.current = agg
	return agg
}

func (a *Aggregator) Current() Aggregate {
	return a.current
}
