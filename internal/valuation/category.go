package valuation

import "strings"

// Category selects the assessment level table of a building.
type Category string

const (
	CategoryUnset        Category = ""
	CategoryResidential  Category = "residential"
	CategoryCommercial   Category = "commercial"
	CategoryAgricultural Category = "agricultural"
	CategoryTimberland   Category = "timberland"
)

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{CategoryResidential, CategoryCommercial, CategoryAgricultural, CategoryTimberland}
}

// ParseCategory accepts a category name in any case. Blank input yields CategoryUnset.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryUnset || c.IsValid() {
		return c, nil
	}
	return CategoryUnset, invalid("buildingCategory", s, "unknown building category")
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryResidential, CategoryCommercial, CategoryAgricultural, CategoryTimberland:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Description() string {
	switch c {
	case CategoryResidential:
		return "Residential building"
	case CategoryCommercial:
		return "Commercial or industrial building"
	case CategoryAgricultural:
		return "Agricultural building"
	case CategoryTimberland:
		return "Building on timberland"
	default:
		return "Unselected"
	}
}

// Quarter is the effectivity quarter of an assessment.
type Quarter string

const (
	QuarterUnset Quarter = ""
	Quarter1     Quarter = "QTR1"
	Quarter2     Quarter = "QTR2"
	Quarter3     Quarter = "QTR3"
	Quarter4     Quarter = "QTR4"
)

func ParseQuarter(s string) (Quarter, error) {
	q := Quarter(strings.ToUpper(strings.TrimSpace(s)))
	switch q {
	case QuarterUnset, Quarter1, Quarter2, Quarter3, Quarter4:
		return q, nil
	}
	return QuarterUnset, invalid("effectiveQuarter", s, "expected QTR1 to QTR4")
}
