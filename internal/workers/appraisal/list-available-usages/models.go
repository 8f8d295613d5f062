// internal/workers/appraisal/list-available-usages/models.go
package listavailableusages

import "assessment-workers/internal/models"

// Input names a construction type. Without one the worker lists the construction types.
type Input struct {
	ConstructionType string `json:"constructionType"`
}

type Output struct {
	ConstructionType  string               `json:"constructionType,omitempty"`
	Usages            []models.UsageOption `json:"usages"`
	ConstructionTypes []string             `json:"constructionTypes"`
}
