package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"assessment-workers/internal/valuation"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schedules/default.yaml
var defaultSchedule []byte

// scheduleFile is the on-disk layout of a unit cost schedule.
type scheduleFile struct {
	Schedule          string `yaml:"schedule"`
	Currency          string `yaml:"currency"`
	AreaUnit          string `yaml:"areaUnit"`
	ConstructionTypes []struct {
		Code        string `yaml:"code"`
		Description string `yaml:"description"`
		UnitCosts   []struct {
			Usage    string  `yaml:"usage"`
			UnitCost *string `yaml:"unitCost"`
		} `yaml:"unitCosts"`
	} `yaml:"constructionTypes"`
}

// ParseYAML builds a catalog from a schedule document. Usages with a null cost are left
// out, which makes them unavailable.
func ParseYAML(data []byte) (*valuation.CostCatalog, error) {
	var doc scheduleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}

	var entries []valuation.CatalogEntry
	for _, ct := range doc.ConstructionTypes {
		for _, uc := range ct.UnitCosts {
			if uc.UnitCost == nil {
				continue
			}
			cost, err := decimal.NewFromString(*uc.UnitCost)
			if err != nil {
				return nil, fmt.Errorf("schedule %s/%s: unit cost %q: %w", ct.Code, uc.Usage, *uc.UnitCost, err)
			}
			entries = append(entries, valuation.CatalogEntry{
				ConstructionType: ct.Code,
				Usage:            uc.Usage,
				UnitCost:         cost,
			})
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("schedule %q has no priced entries", doc.Schedule)
	}
	return valuation.NewCostCatalog(entries)
}

// LoadFile reads a schedule from path, or the built-in schedule when path is empty.
func LoadFile(path string) (*valuation.CostCatalog, error) {
	if path == "" {
		return ParseYAML(defaultSchedule)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	return ParseYAML(data)
}

// Default returns the built-in schedule.
func Default() (*valuation.CostCatalog, error) {
	return ParseYAML(defaultSchedule)
}
