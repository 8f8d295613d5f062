package valuation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pricedItem(t *testing.T, catalog *CostCatalog, id, ct, usage, area, depr string) *LineItem {
	t.Helper()
	item := NewLineItem(id, catalog, createTestPolicy())
	item.SetConstructionType(ct)
	_, err := item.SetUsage(usage)
	require.NoError(t, err)
	require.NoError(t, item.SetArea(d(area)))
	require.NoError(t, item.SetDepreciationPercent(d(depr)))
	return item
}

func TestAggregator_Empty(t *testing.T) {
	agg := NewAggregator()

	for _, got := range []Aggregate{agg.Current(), agg.Recompute(nil), agg.Recompute([]*LineItem{})} {
		assertDecimal(t, "0", got.TotalArea)
		assertDecimal(t, "0", got.TotalUnitValue)
		assertDecimal(t, "0", got.TotalBaseMarketValue)
		assertDecimal(t, "0", got.TotalDepreciationCost)
		assertDecimal(t, "0", got.TotalMarketValue)
	}
}

func TestAggregator_Sums(t *testing.T) {
	catalog := createTestCatalog(t)
	items := []*LineItem{
		pricedItem(t, catalog, "a", "I-A", "residential", "100", "12"),
		pricedItem(t, catalog, "b", "II-A", "commercial", "20", "10"),
		pricedItem(t, catalog, "c", "I-B", "agricultural", "30", "12"),
	}

	got := NewAggregator().Recompute(items)

	assertDecimal(t, "150", got.TotalArea)
	assertDecimal(t, "4100.50", got.TotalUnitValue)
	assertDecimal(t, "218010", got.TotalBaseMarketValue)
	assertDecimal(t, "25201", got.TotalDepreciationCost)
	assertDecimal(t, "192809", got.TotalMarketValue)
}

func TestAggregator_OrderIndependent(t *testing.T) {
	catalog := createTestCatalog(t)
	a := pricedItem(t, catalog, "a", "I-A", "residential", "100.25", "12")
	b := pricedItem(t, catalog, "b", "II-A", "commercial", "33.3", "7.5")
	c := pricedItem(t, catalog, "c", "I-A", "commercial", "0.75", "40")

	orders := [][]*LineItem{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}

	want := NewAggregator().Recompute(orders[0])
	for _, order := range orders[1:] {
		got := NewAggregator().Recompute(order)
		assertDecimal(t, want.TotalArea.String(), got.TotalArea)
		assertDecimal(t, want.TotalUnitValue.String(), got.TotalUnitValue)
		assertDecimal(t, want.TotalBaseMarketValue.String(), got.TotalBaseMarketValue)
		assertDecimal(t, want.TotalDepreciationCost.String(), got.TotalDepreciationCost)
		assertDecimal(t, want.TotalMarketValue.String(), got.TotalMarketValue)
	}
}

func TestAggregator_RemovedItemIsAbsent(t *testing.T) {
	catalog := createTestCatalog(t)
	a := pricedItem(t, catalog, "a", "I-A", "residential", "100", "12")
	b := pricedItem(t, catalog, "b", "I-A", "residential", "100", "12")
	agg := NewAggregator()

	agg.Recompute([]*LineItem{a, b})
	assertDecimal(t, "299200", agg.Current().TotalMarketValue)

	agg.Recompute([]*LineItem{a})
	assertDecimal(t, "149600", agg.Current().TotalMarketValue)
}
