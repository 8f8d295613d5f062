package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// step is a compact bracket row: the lower bound and level. The upper bound is the next
// row's lower bound, and the last row is unbounded.
type step struct {
	from  int64
	level int64
}

// Assessment levels for buildings and other structures, RA 7160 Sec. 218(d).
var statutorySteps = map[Category][]step{
	CategoryResidential: {
		{0, 0},
		{175_000, 10},
		{300_000, 20},
		{500_000, 25},
		{750_000, 30},
		{1_000_000, 35},
		{2_000_000, 40},
		{5_000_000, 50},
		{10_000_000, 60},
	},
	CategoryCommercial: {
		{0, 30},
		{300_000, 35},
		{500_000, 40},
		{750_000, 50},
		{1_000_000, 60},
		{2_000_000, 70},
		{5_000_000, 75},
		{10_000_000, 80},
	},
	CategoryAgricultural: {
		{0, 25},
		{300_000, 30},
		{500_000, 35},
		{750_000, 40},
		{1_000_000, 45},
		{2_000_000, 50},
	},
	CategoryTimberland: {
		{0, 45},
		{300_000, 50},
		{500_000, 55},
		{750_000, 60},
		{1_000_000, 65},
		{2_000_000, 70},
	},
}

func bracketsFromSteps(steps []step) []Bracket {
	out := make([]Bracket, len(steps))
	for i, s := range steps {
		b := Bracket{
			Min:          decimal.NewFromInt(s.from),
			LevelPercent: decimal.NewFromInt(s.level),
		}
		if i+1 < len(steps) {
			b.Max = decimal.NewNullDecimal(decimal.NewFromInt(steps[i+1].from))
		}
		out[i] = b
	}
	return out
}

// StatutoryTables builds the four statutory bracket tables.
func StatutoryTables() ([]*BracketTable, error) {
	tables := make([]*BracketTable, 0, len(statutorySteps))
	for _, c := range Categories() {
		t, err := NewBracketTable(c, bracketsFromSteps(statutorySteps[c]))
		if err != nil {
			return nil, fmt.Errorf("statutory table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// DefaultResolver returns a resolver over the statutory tables. The tables are static, so
// a failure here is a programming error.
func DefaultResolver() *Resolver {
	tables, err := StatutoryTables()
	if err != nil {
		panic(err)
	}
	r, err := NewResolver(tables...)
	if err != nil {
		panic(err)
	}
	return r
}
