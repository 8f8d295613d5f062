// internal/workers/assessment/calculate-assessment/models.go
package calculateassessment

import (
	"assessment-workers/internal/models"

	"github.com/shopspring/decimal"
)

// Input is one appraisal session. Absent fields keep the record defaults: no category,
// taxable, QTR1 of next year, no additional items.
type Input struct {
	LineItems               []models.LineItemInput `json:"lineItems"`
	BuildingCategory        string                 `json:"buildingCategory"`
	Taxable                 *bool                  `json:"taxable,omitempty"`
	EffectiveQuarter        string                 `json:"effectiveQuarter"`
	EffectiveYear           *int                   `json:"effectiveYear,omitempty"`
	AdditionalItemsSubtotal *decimal.Decimal       `json:"additionalItemsSubtotal,omitempty"`
}

type Output struct {
	LineItems          []models.LineItemResult       `json:"lineItems"`
	Aggregate          models.AggregateResult        `json:"aggregate"`
	Assessment         models.AssessmentRecordResult `json:"assessment"`
	UnpricedItems      []string                      `json:"unpricedItems"`
	PublishedRevisions int                           `json:"publishedRevisions"`
}
