package valuation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := DefaultResolver()

	tests := []struct {
		name        string
		category    Category
		marketValue string
		wantLevel   string
		wantOK      bool
	}{
		{"unset category", CategoryUnset, "500000", "0", false},
		{"zero market value", CategoryResidential, "0", "0", false},
		{"negative market value", CategoryCommercial, "-10", "0", false},
		{"residential first bracket", CategoryResidential, "149600", "0", true},
		{"residential just below boundary", CategoryResidential, "174999.99", "0", true},
		{"residential boundary goes up", CategoryResidential, "175000", "10", true},
		{"residential second bracket", CategoryResidential, "299200", "10", true},
		{"residential 300k boundary", CategoryResidential, "300000", "20", true},
		{"residential top bracket", CategoryResidential, "10000000", "60", true},
		{"residential far above", CategoryResidential, "987654321", "60", true},
		{"commercial smallest", CategoryCommercial, "0.01", "30", true},
		{"commercial 750k boundary", CategoryCommercial, "750000", "50", true},
		{"commercial top", CategoryCommercial, "12000000", "80", true},
		{"agricultural 1M boundary", CategoryAgricultural, "1000000", "45", true},
		{"agricultural top", CategoryAgricultural, "2000000", "50", true},
		{"timberland first", CategoryTimberland, "299999.99", "45", true},
		{"timberland top", CategoryTimberland, "5000000", "70", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := resolver.Resolve(tt.category, d(tt.marketValue))
			assert.Equal(t, tt.wantOK, ok)
			assertDecimal(t, tt.wantLevel, level)
		})
	}
}

func TestStatutoryTables_ExactlyOneBracketMatches(t *testing.T) {
	tables, err := StatutoryTables()
	require.NoError(t, err)
	require.Len(t, tables, 4)

	cent := d("0.01")
	for _, table := range tables {
		samples := []decimal.Decimal{decimal.Zero, cent, d("1e12")}
		for _, b := range table.Brackets() {
			samples = append(samples, b.Min, b.Min.Add(cent))
			if b.Min.IsPositive() {
				samples = append(samples, b.Min.Sub(cent))
			}
		}

		for _, v := range samples {
			matches := 0
			for _, b := range table.Brackets() {
				if b.contains(v) {
					matches++
				}
			}
			assert.Equalf(t, 1, matches, "%s at %s", table.Category(), v)

			_, err := table.Match(v)
			assert.NoError(t, err)
		}
	}
}

func TestNewBracketTable_Validation(t *testing.T) {
	bounded := func(min, max, level string) Bracket {
		return Bracket{Min: d(min), Max: decimal.NewNullDecimal(d(max)), LevelPercent: d(level)}
	}
	open := func(min, level string) Bracket {
		return Bracket{Min: d(min), LevelPercent: d(level)}
	}

	tests := []struct {
		name     string
		brackets []Bracket
		errMsg   string
	}{
		{"empty", nil, "empty"},
		{"not starting at zero", []Bracket{open("10", "5")}, "start at 0"},
		{"last bounded", []Bracket{bounded("0", "100", "5")}, "unbounded"},
		{"gap", []Bracket{bounded("0", "100", "5"), open("150", "10")}, "gap or overlap"},
		{"overlap", []Bracket{bounded("0", "100", "5"), open("90", "10")}, "gap or overlap"},
		{"inverted", []Bracket{bounded("0", "0", "5"), open("0", "10")}, "not above min"},
		{"unbounded in middle", []Bracket{open("0", "5"), open("100", "10")}, "not last"},
		{"level above 100", []Bracket{open("0", "120")}, "outside 0-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBracketTable(CategoryResidential, tt.brackets)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewResolver_RequiresAllCategories(t *testing.T) {
	tables, err := StatutoryTables()
	require.NoError(t, err)

	_, err = NewResolver(tables[:3]...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing bracket table")

	_, err = NewResolver(append(tables, tables[0])...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestResolver_BrokenTablePanics(t *testing.T) {
	// Built without NewBracketTable so the coverage check is bypassed.
	broken := &BracketTable{
		category: CategoryResidential,
		brackets: []Bracket{{Min: d("1000"), LevelPercent: d("10")}},
	}

	_, err := broken.Match(d("500"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedBracket))

	resolver := &Resolver{tables: map[Category]*BracketTable{CategoryResidential: broken}}
	assert.Panics(t, func() {
		resolver.Resolve(CategoryResidential, d("500"))
	})
	assert.Panics(t, func() {
		resolver.Resolve(CategoryCommercial, d("500"))
	})
}

func TestAssessmentValue_Rounding(t *testing.T) {
	tests := []struct {
		marketValue string
		level       string
		want        string
	}{
		{"299200", "10", "29920.00"},
		{"100.05", "35", "35.02"},
		{"0.03", "50", "0.02"},
		{"0.01", "50", "0.01"},
		{"0.01", "40", "0"},
		{"1234567.89", "25", "308641.97"},
	}

	for _, tt := range tests {
		t.Run(tt.marketValue+"@"+tt.level, func(t *testing.T) {
			got := AssessmentValue(d(tt.marketValue), d(tt.level))
			assertDecimal(t, tt.want, got)
			assert.LessOrEqual(t, -got.Exponent(), int32(2))
		})
	}
}
