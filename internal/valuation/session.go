package valuation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemSnapshot is the output-boundary view of one line item.
type ItemSnapshot struct {
	ID                  string
	Area                decimal.Decimal
	ConstructionType    string
	Usage               string
	UnitValue           decimal.Decimal
	SMVPercent          decimal.Decimal
	DepreciationPercent decimal.Decimal
	BaseMarketValue     decimal.Decimal
	DepreciationCost    decimal.Decimal
	MarketValue         decimal.Decimal
	Priced              bool
}

// Snapshot is the full output boundary of a session.
type Snapshot struct {
	Items     []ItemSnapshot
	Aggregate Aggregate
	Record    Record
	Unpriced  []string
}

// Session wires line items, the aggregator and the calculator into one dependency-ordered
// recompute. Each setter finishes its cascade before returning:
//
//	item input    -> item -> aggregator -> calculator (aggregate changed)
//	additional    -> calculator (aggregate changed)
//	category      -> calculator (category changed)
//	smv, taxable, effectivity -> owning field only
//
// A Session is not safe for concurrent use.
type Session struct {
	catalog    *CostCatalog
	policy     Policy
	items      []*LineItem
	index      map[string]*LineItem
	aggregator *Aggregator
	calculator *Calculator
}

func NewSession(catalog *CostCatalog, resolver *Resolver, policy Policy, publisher Publisher) *Session {
	return &Session{
		catalog:    catalog,
		policy:     policy,
		index:      make(map[string]*LineItem),
		aggregator: NewAggregator(),
		calculator: NewCalculator(resolver, policy, publisher),
	}
}

// AddItem appends a line item with default values and returns its id. A blank id is
// replaced by a generated one.
func (s *Session) AddItem(id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.index[id]; exists {
		return "", invalid("id", id, "duplicate line item")
	}
	item := NewLineItem(id, s.catalog, s.policy)
	s.items = append(s.items, item)
	s.index[id] = item
	s.itemsChanged()
	return id, nil
}

func (s *Session) RemoveItem(id string) error {
	if _, err := s.item(id); err != nil {
		return err
	}
	delete(s.index, id)
	for i, item := range s.items {
		if item.ID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.itemsChanged()
	return nil
}

func (s *Session) SetArea(id string, v decimal.Decimal) error {
	item, err := s.item(id)
	if err != nil {
		return err
	}
	if err := item.SetArea(v); err != nil {
		return err
	}
	s.itemsChanged()
	return nil
}

func (s *Session) SetConstructionType(id, code string) error {
	item, err := s.item(id)
	if err != nil {
		return err
	}
	item.SetConstructionType(code)
	s.itemsChanged()
	return nil
}

// SetUsage reports priced=false when the combination has no catalog price.
func (s *Session) SetUsage(id, code string) (bool, error) {
	item, err := s.item(id)
	if err != nil {
		return false, err
	}
	priced, err := item.SetUsage(code)
	if err != nil {
		return false, err
	}
	s.itemsChanged()
	return priced, nil
}

// SetSMVPercent stores the SMV factor. No derived value depends on it.
func (s *Session) SetSMVPercent(id string, v decimal.Decimal) error {
	item, err := s.item(id)
	if err != nil {
		return err
	}
	return item.SetSMVPercent(v)
}

func (s *Session) SetDepreciationPercent(id string, v decimal.Decimal) error {
	item, err := s.item(id)
	if err != nil {
		return err
	}
	if err := item.SetDepreciationPercent(v); err != nil {
		return err
	}
	s.itemsChanged()
	return nil
}

func (s *Session) SetCategory(c Category) error {
	return s.calculator.SetCategory(c)
}

func (s *Session) SetAdditionalItemsSubtotal(v decimal.Decimal) {
	s.calculator.SetAdditionalItemsSubtotal(v)
}

func (s *Session) SetTaxable(taxable bool) {
	s.calculator.SetTaxable(taxable)
}

func (s *Session) SetEffectiveQuarter(q Quarter) {
	s.calculator.SetEffectiveQuarter(q)
}

func (s *Session) SetEffectiveYear(year int) error {
	return s.calculator.SetEffectiveYear(year)
}

func (s *Session) Aggregate() Aggregate {
	return s.aggregator.Current()
}

func (s *Session) Record() Record {
	return s.calculator.Record()
}

func (s *Session) Len() int {
	return len(s.items)
}

func (s *Session) Item(id string) (ItemSnapshot, bool) {
	item, ok := s.index[id]
	if !ok {
		return ItemSnapshot{}, false
	}
	return snapshotItem(item), true
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Items:     make([]ItemSnapshot, 0, len(s.items)),
		Aggregate: s.aggregator.Current(),
		Record:    s.calculator.Record(),
		Unpriced:  []string{},
	}
	for _, item := range s.items {
		snap.Items = append(snap.Items, snapshotItem(item))
		if item.Unpriced() {
			snap.Unpriced = append(snap.Unpriced, item.ID())
		}
	}
	return snap
}

func (s *Session) item(id string) (*LineItem, error) {
	item, ok := s.index[id]
	if !ok {
		return nil, invalid("id", id, "unknown line item")
	}
	return item, nil
}

func (s *Session) itemsChanged() {
	s.calculator.AggregateChanged(s.aggregator.Recompute(s.items))
}

func snapshotItem(item *LineItem) ItemSnapshot {
	return ItemSnapshot{
		ID:                  item.ID(),
		Area:                item.Area(),
		ConstructionType:    item.ConstructionType(),
		Usage:               item.Usage(),
		UnitValue:           item.UnitValue(),
		SMVPercent:          item.SMVPercent(),
		DepreciationPercent: item.DepreciationPercent(),
		BaseMarketValue:     item.BaseMarketValue(),
		DepreciationCost:    item.DepreciationCost(),
		MarketValue:         item.MarketValue(),
		Priced:              item.Priced(),
	}
}
