package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bracket is a market value range [Min, Max) with its assessment level. An invalid Max
// means the bracket is unbounded above.
type Bracket struct {
	Min          decimal.Decimal
	Max          decimal.NullDecimal
	LevelPercent decimal.Decimal
}

func (b Bracket) contains(v decimal.Decimal) bool {
	if v.LessThan(b.Min) {
		return false
	}
	return !b.Max.Valid || v.LessThan(b.Max.Decimal)
}

// BracketTable is the ordered, contiguous schedule for one category.
type BracketTable struct {
	category Category
	brackets []Bracket
}

// NewBracketTable checks that brackets start at zero, ascend without gaps or overlaps,
// and end with the only unbounded bracket.
func NewBracketTable(category Category, brackets []Bracket) (*BracketTable, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("%s: bracket table is empty", category)
	}
	if !brackets[0].Min.IsZero() {
		return nil, fmt.Errorf("%s: first bracket must start at 0, got %s", category, brackets[0].Min)
	}

	last := len(brackets) - 1
	for i, b := range brackets {
		if b.LevelPercent.IsNegative() || b.LevelPercent.GreaterThan(hundred) {
			return nil, fmt.Errorf("%s: bracket %d level %s outside 0-100", category, i, b.LevelPercent)
		}
		if i == last {
			if b.Max.Valid {
				return nil, fmt.Errorf("%s: last bracket must be unbounded", category)
			}
			break
		}
		if !b.Max.Valid {
			return nil, fmt.Errorf("%s: bracket %d is unbounded but not last", category, i)
		}
		if !b.Max.Decimal.GreaterThan(b.Min) {
			return nil, fmt.Errorf("%s: bracket %d max %s not above min %s", category, i, b.Max.Decimal, b.Min)
		}
		if !b.Max.Decimal.Equal(brackets[i+1].Min) {
			return nil, fmt.Errorf("%s: gap or overlap between brackets %d and %d", category, i, i+1)
		}
	}

	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	return &BracketTable{category: category, brackets: out}, nil
}

func (t *BracketTable) Category() Category {
	return t.category
}

func (t *BracketTable) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// Match returns the bracket with Min <= v < Max. A value on a boundary belongs to the
// upper bracket.
func (t *BracketTable) Match(v decimal.Decimal) (Bracket, error) {
	for _, b := range t.brackets {
		if b.contains(v) {
			return b, nil
		}
	}
	return Bracket{}, fmt.Errorf("%w: %s market value %s", ErrUnresolvedBracket, t.category, v)
}

// Resolver maps a category and market value to an assessment level.
type Resolver struct {
	tables map[Category]*BracketTable
}

// NewResolver requires exactly one table per category.
func NewResolver(tables ...*BracketTable) (*Resolver, error) {
	r := &Resolver{tables: make(map[Category]*BracketTable, len(tables))}
	for _, t := range tables {
		if !t.category.IsValid() {
			return nil, fmt.Errorf("bracket table for unknown category %q", t.category)
		}
		if _, dup := r.tables[t.category]; dup {
			return nil, fmt.Errorf("duplicate bracket table for %s", t.category)
		}
		r.tables[t.category] = t
	}
	for _, c := range Categories() {
		if _, ok := r.tables[c]; !ok {
			return nil, fmt.Errorf("missing bracket table for %s", c)
		}
	}
	return r, nil
}

// Table returns the bracket table of a category, or nil.
func (r *Resolver) Table(c Category) *BracketTable {
	return r.tables[c]
}

// Resolve returns the assessment level for marketValue. ok is false when the category is
// unset or the market value is not positive. A table that fails to cover the value is a
// broken contract and panics.
func (r *Resolver) Resolve(category Category, marketValue decimal.Decimal) (level decimal.Decimal, ok bool) {
	if category == CategoryUnset || !marketValue.IsPositive() {
		return decimal.Zero, false
	}
	table, found := r.tables[category]
	if !found {
		panic(fmt.Errorf("%w: no table for category %q", ErrUnresolvedBracket, category))
	}
	b, err := table.Match(marketValue)
	if err != nil {
		panic(err)
	}
	return b.LevelPercent, true
}

// AssessmentValue is marketValue × level / 100 rounded to centavos, half away from zero.
func AssessmentValue(marketValue, levelPercent decimal.Decimal) decimal.Decimal {
	return percentOf(marketValue, levelPercent).Round(2)
}
