package valuation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogEntry is one offered (construction type, usage) combination.
type CatalogEntry struct {
	ConstructionType string
	Usage            string
	UnitCost         decimal.Decimal
}

type catalogKey struct {
	constructionType string
	usage            string
}

// CostCatalog maps (construction type, usage) pairs to a unit cost per area unit.
// Combinations that are not present are unavailable, which is distinct from a zero cost.
// A CostCatalog is immutable after construction and safe for concurrent reads.
type CostCatalog struct {
	costs  map[catalogKey]decimal.Decimal
	usages map[string][]string
	types  []string
}

// NewCostCatalog builds a catalog from entries. Usage order per construction type follows
// entry order.
func NewCostCatalog(entries []CatalogEntry) (*CostCatalog, error) {
	c := &CostCatalog{
		costs:  make(map[catalogKey]decimal.Decimal, len(entries)),
		usages: make(map[string][]string),
	}

	for i, e := range entries {
		ct := strings.TrimSpace(e.ConstructionType)
		usage := strings.TrimSpace(e.Usage)
		if ct == "" || usage == "" {
			return nil, fmt.Errorf("catalog entry %d: construction type and usage are required", i)
		}
		if e.UnitCost.IsNegative() {
			return nil, fmt.Errorf("catalog entry %s/%s: negative unit cost %s", ct, usage, e.UnitCost)
		}

		key := catalogKey{constructionType: ct, usage: usage}
		if _, exists := c.costs[key]; exists {
			return nil, fmt.Errorf("catalog entry %s/%s: duplicate", ct, usage)
		}
		c.costs[key] = e.UnitCost

		if _, seen := c.usages[ct]; !seen {
			c.types = append(c.types, ct)
		}
		c.usages[ct] = append(c.usages[ct], usage)
	}

	return c, nil
}

// Lookup returns the unit cost for the pair and whether the pair is offered at all.
func (c *CostCatalog) Lookup(constructionType, usage string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	cost, ok := c.costs[catalogKey{constructionType: constructionType, usage: usage}]
	if !ok {
		return decimal.Zero, false
	}
	return cost, true
}

// AvailableUsagesFor lists the priced usages of a construction type in catalog order.
func (c *CostCatalog) AvailableUsagesFor(constructionType string) []string {
	if c == nil {
		return []string{}
	}
	usages := c.usages[constructionType]
	out := make([]string, len(usages))
	copy(out, usages)
	return out
}

// ConstructionTypes returns the offered construction types in catalog order.
func (c *CostCatalog) ConstructionTypes() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out
}

// Entries returns every offered combination in catalog order.
func (c *CostCatalog) Entries() []CatalogEntry {
	if c == nil {
		return nil
	}
	out := make([]CatalogEntry, 0, len(c.costs))
	for _, ct := range c.types {
		for _, usage := range c.usages[ct] {
			out = append(out, CatalogEntry{
				ConstructionType: ct,
				Usage:            usage,
				UnitCost:         c.costs[catalogKey{constructionType: ct, usage: usage}],
			})
		}
	}
	return out
}

// Len returns the number of priced combinations.
func (c *CostCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.costs)
}
