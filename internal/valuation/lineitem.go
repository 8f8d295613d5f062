package valuation

import (
	"github.com/shopspring/decimal"
)

// LineItem is one appraised building or structure row.
// Unit value is derived from the catalog and cannot be set directly.
type LineItem struct {
	id      string
	catalog *CostCatalog
	policy  Policy

	area                decimal.Decimal
	constructionType    string
	usage               string
	unitValue           decimal.Decimal
	smvPercent          decimal.Decimal
	depreciationPercent decimal.Decimal
}

func NewLineItem(id string, catalog *CostCatalog, policy Policy) *LineItem {
	return &LineItem{
		id:                  id,
		catalog:             catalog,
		policy:              policy,
		area:                decimal.Zero,
		unitValue:           decimal.Zero,
		smvPercent:          policy.DefaultSMVPercent,
		depreciationPercent: policy.DefaultDepreciationPercent,
	}
}

func (li *LineItem) ID() string                           { return li.id }
func (li *LineItem) Area() decimal.Decimal                { return li.area }
func (li *LineItem) ConstructionType() string             { return li.constructionType }
func (li *LineItem) Usage() string                        { return li.usage }
func (li *LineItem) UnitValue() decimal.Decimal           { return li.unitValue }
func (li *LineItem) SMVPercent() decimal.Decimal          { return li.smvPercent }
func (li *LineItem) DepreciationPercent() decimal.Decimal { return li.depreciationPercent }

// SetConstructionType changes the construction type and clears the usage, since usage
// sets are specific to a construction type. Re-selecting the current type is a no-op.
func (li *LineItem) SetConstructionType(code string) {
	if code == li.constructionType {
		return
	}
	li.constructionType = code
	li.usage = ""
	li.unitValue = decimal.Zero
}

// SetUsage selects a usage and reprices the item. priced is false when the pair has no
// catalog entry; the unit value is then 0 and the item is still valid.
func (li *LineItem) SetUsage(code string) (priced bool, err error) {
	if code == "" {
		li.usage = ""
		li.unitValue = decimal.Zero
		return false, nil
	}
	if li.constructionType == "" {
		return false, invalid("usage", code, "construction type must be selected first")
	}

	cost, ok := li.catalog.Lookup(li.constructionType, code)
	li.usage = code
	if !ok {
		li.unitValue = decimal.Zero
		return false, nil
	}
	li.unitValue = cost
	return true, nil
}

func (li *LineItem) SetArea(v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid("area", v.String(), "must not be negative")
	}
	li.area = v
	return nil
}

func (li *LineItem) SetSMVPercent(v decimal.Decimal) error {
	pct, err := li.policy.normalizePercent("smvPercent", v)
	if err != nil {
		return err
	}
	li.smvPercent = pct
	return nil
}

func (li *LineItem) SetDepreciationPercent(v decimal.Decimal) error {
	pct, err := li.policy.normalizePercent("depreciationPercent", v)
	if err != nil {
		return err
	}
	li.depreciationPercent = pct
	return nil
}

// Priced reports whether both keys are chosen and the catalog offers the pair.
func (li *LineItem) Priced() bool {
	if li.constructionType == "" || li.usage == "" {
		return false
	}
	_, ok := li.catalog.Lookup(li.constructionType, li.usage)
	return ok
}

// Unpriced reports a chosen (construction type, usage) pair the catalog does not offer.
// An item still missing either key is incomplete, not unpriced.
func (li *LineItem) Unpriced() bool {
	if li.constructionType == "" || li.usage == "" {
		return false
	}
	return !li.Priced()
}

func (li *LineItem) BaseMarketValue() decimal.Decimal {
	return li.area.Mul(li.unitValue)
}

func (li *LineItem) DepreciationCost() decimal.Decimal {
	return percentOf(li.BaseMarketValue(), li.depreciationPercent)
}

func (li *LineItem) MarketValue() decimal.Decimal {
	return li.BaseMarketValue().Sub(li.DepreciationCost())
}
