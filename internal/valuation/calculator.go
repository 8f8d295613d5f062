package valuation

import (
	"github.com/shopspring/decimal"
)

// Record is the assessment of one appraisal session. An invalid AssessmentLevelPercent
// means no level applies.
type Record struct {
	BuildingCategory       Category
	EffectiveQuarter       Quarter
	EffectiveYear          int
	Taxable                bool
	TotalArea              decimal.Decimal
	MarketValue            decimal.Decimal
	AssessmentLevelPercent decimal.NullDecimal
	AssessmentValue        decimal.Decimal
}

// Publisher receives a copy of the record after every change.
type Publisher interface {
	Publish(Record)
}

type PublisherFunc func(Record)

func (f PublisherFunc) Publish(r Record) { f(r) }

type discardPublisher struct{}

func (discardPublisher) Publish(Record) {}

// Calculator owns the single assessment record of a session. Updates flow into it from the
// aggregate and the category; it never calls back upstream and never reads what it
// published.
type Calculator struct {
	resolver  *Resolver
	policy    Policy
	publisher Publisher

	record     *Record
	aggregate  Aggregate
	additional decimal.Decimal
}

func NewCalculator(resolver *Resolver, policy Policy, publisher Publisher) *Calculator {
	if publisher == nil {
		publisher = discardPublisher{}
	}
	return &Calculator{
		resolver:   resolver,
		policy:     policy,
		publisher:  publisher,
		aggregate:  zeroAggregate(),
		additional: decimal.Zero,
	}
}

// Record returns the current record, creating it on first use.
func (c *Calculator) Record() Record {
	c.ensure()
	return *c.record
}

// ensure runs the initialization trigger once.
func (c *Calculator) ensure() {
	if c.record != nil {
		return
	}
	c.record = &Record{
		BuildingCategory: CategoryUnset,
		EffectiveQuarter: Quarter1,
		EffectiveYear:    c.policy.now().Year() + 1,
		Taxable:          true,
	}
	c.applyTotals()
	c.reassess()
	c.publish()
}

// AggregateChanged takes a new aggregate. Area and market value are refreshed, then the
// level and value follow if the market value moved.
func (c *Calculator) AggregateChanged(agg Aggregate) {
	c.ensure()
	c.aggregate = agg
	c.totalsChanged()
}

// SetAdditionalItemsSubtotal is an aggregate-changed trigger for the external adjustment.
func (c *Calculator) SetAdditionalItemsSubtotal(v decimal.Decimal) {
	c.ensure()
	c.additional = v
	c.totalsChanged()
}

// SetCategory is the category-changed trigger. CategoryUnset clears the level.
func (c *Calculator) SetCategory(category Category) error {
	if category != CategoryUnset && !category.IsValid() {
		return invalid("buildingCategory", string(category), "unknown building category")
	}
	c.ensure()
	c.record.BuildingCategory = category
	c.reassess()
	c.publish()
	return nil
}

func (c *Calculator) SetTaxable(taxable bool) {
	c.ensure()
	c.record.Taxable = taxable
	c.publish()
}

func (c *Calculator) SetEffectiveQuarter(q Quarter) {
	c.ensure()
	c.record.EffectiveQuarter = q
	c.publish()
}

func (c *Calculator) SetEffectiveYear(year int) error {
	if err := c.policy.checkYear(year); err != nil {
		return err
	}
	c.ensure()
	c.record.EffectiveYear = year
	c.publish()
	return nil
}

// EffectiveMarketValue is the aggregate market value plus the additional items subtotal.
func (c *Calculator) EffectiveMarketValue() decimal.Decimal {
	return c.aggregate.TotalMarketValue.Add(c.additional)
}

func (c *Calculator) totalsChanged() {
	before := c.record.MarketValue
	c.applyTotals()
	if !before.Equal(c.record.MarketValue) {
		c.reassess()
	}
	c.publish()
}

func (c *Calculator) applyTotals() {
	c.record.TotalArea = c.aggregate.TotalArea
	c.record.MarketValue = c.EffectiveMarketValue()
}

func (c *Calculator) reassess() {
	level, ok := c.resolver.Resolve(c.record.BuildingCategory, c.record.MarketValue)
	if !ok {
		c.record.AssessmentLevelPercent = decimal.NullDecimal{}
		c.record.AssessmentValue = decimal.Zero
		return
	}
	c.record.AssessmentLevelPercent = decimal.NewNullDecimal(level)
	c.record.AssessmentValue = AssessmentValue(c.record.MarketValue, level)
}

func (c *Calculator) publish() {
	c.publisher.Publish(*c.record)
}
