// internal/workers/appraisal/compute-appraisal/models.go
package computeappraisal

import "assessment-workers/internal/models"

type Input struct {
	LineItems []models.LineItemInput `json:"lineItems"`
}

type Output struct {
	LineItems     []models.LineItemResult `json:"lineItems"`
	Aggregate     models.AggregateResult  `json:"aggregate"`
	UnpricedItems []string                `json:"unpricedItems"`
}
