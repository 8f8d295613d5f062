package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func createTestCatalog(t *testing.T) *CostCatalog {
	t.Helper()
	c, err := NewCostCatalog([]CatalogEntry{
		{ConstructionType: "I-A", Usage: "residential", UnitCost: d("1700")},
		{ConstructionType: "I-A", Usage: "commercial", UnitCost: d("1950")},
		{ConstructionType: "I-B", Usage: "residential", UnitCost: d("1500")},
		{ConstructionType: "I-B", Usage: "agricultural", UnitCost: d("0")},
		{ConstructionType: "II-A", Usage: "commercial", UnitCost: d("2400.50")},
	})
	require.NoError(t, err)
	return c
}

func createTestPolicy() Policy {
	p := DefaultPolicy()
	p.Now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

type recordingPublisher struct {
	records []Record
}

func (p *recordingPublisher) Publish(r Record) {
	p.records = append(p.records, r)
}

func (p *recordingPublisher) last() Record {
	return p.records[len(p.records)-1]
}
