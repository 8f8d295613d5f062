package models

import (
	"encoding/json"
	"errors"
	"testing"

	"assessment-workers/internal/valuation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func createTestSession(t *testing.T) *valuation.Session {
	t.Helper()
	cat, err := valuation.NewCostCatalog([]valuation.CatalogEntry{
		{ConstructionType: "I-A", Usage: "residential", UnitCost: decimal.RequireFromString("1700")},
		{ConstructionType: "I-A", Usage: "commercial", UnitCost: decimal.RequireFromString("1950")},
	})
	require.NoError(t, err)
	return valuation.NewSession(cat, valuation.DefaultResolver(), valuation.DefaultPolicy(), nil)
}

func TestLineItemInput_UnmarshalNumbersAndStrings(t *testing.T) {
	var in LineItemInput
	err := json.Unmarshal([]byte(`{"id":"a","area":120.5,"constructionType":"I-A","usage":"residential","smvPercent":"80"}`), &in)
	require.NoError(t, err)

	assert.Equal(t, "a", in.ID)
	require.NotNil(t, in.Area)
	assert.True(t, in.Area.Equal(decimal.RequireFromString("120.5")))
	require.NotNil(t, in.SMVPercent)
	assert.True(t, in.SMVPercent.Equal(decimal.NewFromInt(80)))
	assert.Nil(t, in.DepreciationPercent)
}

func TestApplyLineItems(t *testing.T) {
	s := createTestSession(t)

	err := ApplyLineItems(s, []LineItemInput{
		{ID: "main", Area: dec("100"), ConstructionType: "I-A", Usage: "residential"},
		{ID: "annex", Area: dec("10"), ConstructionType: "I-A", Usage: "storage", DepreciationPercent: dec("0")},
		{ID: "bare"},
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 3)
	assert.Equal(t, []string{"annex"}, snap.Unpriced)

	main := NewLineItemResult(snap.Items[0])
	assert.True(t, main.Priced)
	assert.True(t, main.BaseMarketValue.Equal(decimal.NewFromInt(170000)))
	assert.True(t, main.DepreciationCost.Equal(decimal.NewFromInt(20400)))
	assert.True(t, main.MarketValue.Equal(decimal.NewFromInt(149600)))

	annex := NewLineItemResult(snap.Items[1])
	assert.False(t, annex.Priced)
	assert.Equal(t, "storage", annex.Usage)
	assert.True(t, annex.MarketValue.IsZero())

	agg := NewAggregateResult(snap.Aggregate)
	assert.True(t, agg.TotalArea.Equal(decimal.NewFromInt(110)))
	assert.True(t, agg.TotalMarketValue.Equal(decimal.NewFromInt(149600)))
}

func TestApplyLineItems_Errors(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineItemInput
		errText string
	}{
		{
			name:    "usage without construction type",
			items:   []LineItemInput{{ID: "a", Usage: "residential"}},
			errText: "lineItems[0]",
		},
		{
			name: "negative area on second item",
			items: []LineItemInput{
				{ID: "a"},
				{ID: "b", Area: dec("-1")},
			},
			errText: "lineItems[1]",
		},
		{
			name:    "duplicate id",
			items:   []LineItemInput{{ID: "a"}, {ID: "a"}},
			errText: "duplicate line item",
		},
		{
			name:    "percent out of range",
			items:   []LineItemInput{{ID: "a", SMVPercent: dec("101")}},
			errText: "smvPercent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyLineItems(createTestSession(t), tt.items)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
			assert.True(t, errors.Is(err, valuation.ErrInvalidInput))
		})
	}
}

func TestAssessmentRecordResult_JSON(t *testing.T) {
	rec := NewAssessmentRecordResult(valuation.Record{
		BuildingCategory: valuation.CategoryUnset,
		EffectiveQuarter: valuation.Quarter1,
		EffectiveYear:    2027,
		Taxable:          true,
		TotalArea:        decimal.NewFromInt(10),
		MarketValue:      decimal.NewFromInt(1000),
		AssessmentValue:  decimal.Zero,
	})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Nil(t, raw["assessmentLevelPercent"])
	assert.Contains(t, raw, "assessmentLevelPercent")
	assert.Equal(t, "", raw["buildingCategory"])
	assert.Equal(t, "QTR1", raw["effectiveQuarter"])
	assert.Equal(t, float64(2027), raw["effectiveYear"])
}
