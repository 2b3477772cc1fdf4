/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. The computed
  result types (Totals, BreakdownReport, PaymentSummary) are returned
  as-is: they are already immutable display-formatted values.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - estimator/types.go: result types returned directly
*/
package api

import (
	"time"

	"github.com/warp/estimate-engine/estimator"
	"github.com/warp/estimate-engine/store"
)

// ProjectDTO represents a stored project in API responses.
type ProjectDTO struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Categories []estimator.Category `json:"categories"`
	Settings   estimator.Settings   `json:"settings"`
	CreatedAt  string               `json:"created_at,omitempty"`
	UpdatedAt  string               `json:"updated_at,omitempty"`
}

// SaveProjectRequest creates or replaces a project.
type SaveProjectRequest struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Categories []estimator.Category `json:"categories"`
	Settings   estimator.Settings   `json:"settings"`
}

// EstimateRequest is an ad-hoc computation over inline data, without
// persisting a project.
type EstimateRequest struct {
	Categories []estimator.Category `json:"categories"`
	Settings   *estimator.Settings  `json:"settings"`
}

// EstimateResponse bundles the three computed views in one shot.
type EstimateResponse struct {
	Totals     estimator.Totals          `json:"totals"`
	Breakdowns estimator.BreakdownReport `json:"breakdowns"`
	Payments   estimator.PaymentSummary  `json:"payments"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProjectDTO(p store.Project) ProjectDTO {
	return ProjectDTO{
		ID:         p.ID,
		Name:       p.Name,
		Categories: p.Categories,
		Settings:   p.Settings,
		CreatedAt:  formatTime(p.CreatedAt),
		UpdatedAt:  formatTime(p.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
