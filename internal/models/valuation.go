// Package models holds the job-variable shapes shared by the valuation workers.
package models

import (
	"fmt"

	"assessment-workers/internal/valuation"

	"github.com/shopspring/decimal"
)

// LineItemInput is one building line item as sent by the process. Absent numeric fields
// keep the session defaults.
type LineItemInput struct {
	ID                  string           `json:"id,omitempty"`
	Area                *decimal.Decimal `json:"area,omitempty"`
	ConstructionType    string           `json:"constructionType,omitempty"`
	Usage               string           `json:"usage,omitempty"`
	SMVPercent          *decimal.Decimal `json:"smvPercent,omitempty"`
	DepreciationPercent *decimal.Decimal `json:"depreciationPercent,omitempty"`
}

type LineItemResult struct {
	ID                  string          `json:"id"`
	Area                decimal.Decimal `json:"area"`
	ConstructionType    string          `json:"constructionType"`
	Usage               string          `json:"usage"`
	UnitValue           decimal.Decimal `json:"unitValue"`
	SMVPercent          decimal.Decimal `json:"smvPercent"`
	DepreciationPercent decimal.Decimal `json:"depreciationPercent"`
	BaseMarketValue     decimal.Decimal `json:"baseMarketValue"`
	DepreciationCost    decimal.Decimal `json:"depreciationCost"`
	MarketValue         decimal.Decimal `json:"marketValue"`
	Priced              bool            `json:"priced"`
}

type AggregateResult struct {
	TotalArea             decimal.Decimal `json:"totalArea"`
	TotalUnitValue        decimal.Decimal `json:"totalUnitValue"`
	TotalBaseMarketValue  decimal.Decimal `json:"totalBaseMarketValue"`
	TotalDepreciationCost decimal.Decimal `json:"totalDepreciationCost"`
	TotalMarketValue      decimal.Decimal `json:"totalMarketValue"`
}

// AssessmentRecordResult serializes a missing assessment level as null.
type AssessmentRecordResult struct {
	BuildingCategory       string              `json:"buildingCategory"`
	EffectiveQuarter       string              `json:"effectiveQuarter"`
	EffectiveYear          int                 `json:"effectiveYear"`
	Taxable                bool                `json:"taxable"`
	TotalArea              decimal.Decimal     `json:"totalArea"`
	MarketValue            decimal.Decimal     `json:"marketValue"`
	AssessmentLevelPercent decimal.NullDecimal `json:"assessmentLevelPercent"`
	AssessmentValue        decimal.Decimal     `json:"assessmentValue"`
}

// UsageOption is one priced usage of a construction type.
type UsageOption struct {
	Usage    string          `json:"usage"`
	UnitCost decimal.Decimal `json:"unitCost"`
}

func NewLineItemResult(s valuation.ItemSnapshot) LineItemResult {
	return LineItemResult{
		ID:                  s.ID,
		Area:                s.Area,
		ConstructionType:    s.ConstructionType,
		Usage:               s.Usage,
		UnitValue:           s.UnitValue,
		SMVPercent:          s.SMVPercent,
		DepreciationPercent: s.DepreciationPercent,
		BaseMarketValue:     s.BaseMarketValue,
		DepreciationCost:    s.DepreciationCost,
		MarketValue:         s.MarketValue,
		Priced:              s.Priced,
	}
}

func NewLineItemResults(items []valuation.ItemSnapshot) []LineItemResult {
	out := make([]LineItemResult, 0, len(items))
	for _, it := range items {
		out = append(out, NewLineItemResult(it))
	}
	return out
}

func NewAggregateResult(a valuation.Aggregate) AggregateResult {
	return AggregateResult{
		TotalArea:             a.TotalArea,
		TotalUnitValue:        a.TotalUnitValue,
		TotalBaseMarketValue:  a.TotalBaseMarketValue,
		TotalDepreciationCost: a.TotalDepreciationCost,
		TotalMarketValue:      a.TotalMarketValue,
	}
}

func NewAssessmentRecordResult(r valuation.Record) AssessmentRecordResult {
	return AssessmentRecordResult{
		BuildingCategory:       r.BuildingCategory.String(),
		EffectiveQuarter:       string(r.EffectiveQuarter),
		EffectiveYear:          r.EffectiveYear,
		Taxable:                r.Taxable,
		TotalArea:              r.TotalArea,
		MarketValue:            r.MarketValue,
		AssessmentLevelPercent: r.AssessmentLevelPercent,
		AssessmentValue:        r.AssessmentValue,
	}
}

// ApplyLineItems adds every input to the session in order. The construction type is set
// before the usage so the unit cost lookup sees both. Errors name the offending index.
func ApplyLineItems(s *valuation.Session, items []LineItemInput) error {
	for i, in := range items {
		if err := applyLineItem(s, in); err != nil {
			return fmt.Errorf("lineItems[%d]: %w", i, err)
		}
	}
	return nil
}

func applyLineItem(s *valuation.Session, in LineItemInput) error {
	id, err := s.AddItem(in.ID)
	if err != nil {
		return err
	}

	if in.ConstructionType != "" {
		if err := s.SetConstructionType(id, in.ConstructionType); err != nil {
			return err
		}
	}
	if in.Usage != "" {
		if _, err := s.SetUsage(id, in.Usage); err != nil {
			return err
		}
	}
	if in.Area != nil {
		if err := s.SetArea(id, *in.Area); err != nil {
			return err
		}
	}
	if in.SMVPercent != nil {
		if err := s.SetSMVPercent(id, *in.SMVPercent); err != nil {
			return err
		}
	}
	if in.DepreciationPercent != nil {
		if err := s.SetDepreciationPercent(id, *in.DepreciationPercent); err != nil {
			return err
		}
	}
	return nil
}
