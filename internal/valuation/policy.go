package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

// PercentMode selects how out-of-range percentages are handled by line-item setters.
type PercentMode string

const (
	PercentReject PercentMode = "reject"
	PercentClamp  PercentMode = "clamp"
)

var (
	hundred = decimal.NewFromInt(100)

	defaultSMVPercent          = decimal.NewFromInt(100)
	defaultDepreciationPercent = decimal.NewFromInt(12)
)

// Policy carries the tunable rules of an appraisal session.
type Policy struct {
	PercentMode                PercentMode
	DefaultSMVPercent          decimal.Decimal
	DefaultDepreciationPercent decimal.Decimal
	MinYear                    int
	MaxYearsAhead              int
	Now                        func() time.Time
}

func DefaultPolicy() Policy {
	return Policy{
		PercentMode:                PercentReject,
		DefaultSMVPercent:          defaultSMVPercent,
		DefaultDepreciationPercent: defaultDepreciationPercent,
		MinYear:                    1900,
		MaxYearsAhead:              10,
		Now:                        time.Now,
	}
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p Policy) maxYear() int {
	return p.now().Year() + p.MaxYearsAhead
}

// normalizePercent applies the percent mode to v. Clamping never fails.
func (p Policy) normalizePercent(field string, v decimal.Decimal) (decimal.Decimal, error) {
	if v.GreaterThanOrEqual(decimal.Zero) && v.LessThanOrEqual(hundred) {
		return v, nil
	}
	if p.PercentMode == PercentClamp {
		if v.IsNegative() {
			return decimal.Zero, nil
		}
		return hundred, nil
	}
	return decimal.Zero, invalid(field, v.String(), "must be between 0 and 100")
}

func (p Policy) checkYear(year int) error {
	if year < p.MinYear || year > p.maxYear() {
		return invalid("effectiveYear", itoa(year), "outside plausible range")
	}
	return nil
}

// percentOf returns amount × pct / 100.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}
