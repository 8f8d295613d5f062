// internal/workers/assessment/resolve-assessment-level/models.go
package resolveassessmentlevel

import "github.com/shopspring/decimal"

type Input struct {
	BuildingCategory string          `json:"buildingCategory"`
	MarketValue      decimal.Decimal `json:"marketValue"`
}

// Output carries a null level and a zero value when no bracket applies.
type Output struct {
	BuildingCategory       string              `json:"buildingCategory"`
	Resolved               bool                `json:"resolved"`
	AssessmentLevelPercent decimal.NullDecimal `json:"assessmentLevelPercent"`
	AssessmentValue        decimal.Decimal     `json:"assessmentValue"`
}
