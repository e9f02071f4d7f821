package numbering

import (
	"time"

	"github.com/opsdesk/backend/internal/domain/numbering"
)

// UpdateCounterConfigRequest changes how numbers are rendered for a
// document kind. The running counter itself is never touched here.
type UpdateCounterConfigRequest struct {
	Prefix       string `json:"prefix" binding:"max=20"`
	Format       string `json:"format" binding:"required,oneof=running_only year_running month_running"`
	LeadingZeros int    `json:"leading_zeros" binding:"required,min=1,max=10"`
}

// SetCounterRequest is the administrative counter override.
type SetCounterRequest struct {
	Value int64 `json:"value" binding:"required,min=1"`
}

// CounterResponse represents a document counter in API responses
type CounterResponse struct {
	Kind           string    `json:"kind"`
	Prefix         string    `json:"prefix"`
	Format         string    `json:"format"`
	LeadingZeros   int       `json:"leading_zeros"`
	CurrentCounter int64     `json:"current_counter"`
	NextNumber     string    `json:"next_number"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// PreviewResponse carries a rendered preview of the next number.
type PreviewResponse struct {
	Kind       string `json:"kind"`
	NextNumber string `json:"next_number"`
}

// ToCounterResponse converts a domain DocumentCounter to CounterResponse
func ToCounterResponse(c *numbering.DocumentCounter, now time.Time) CounterResponse {
	return CounterResponse{
		Kind:           c.Kind.String(),
		Prefix:         c.Prefix,
		Format:         c.Format.String(),
		LeadingZeros:   c.LeadingZeros,
		CurrentCounter: c.CurrentCounter,
		NextNumber:     c.Peek(now),
		UpdatedAt:      c.UpdatedAt,
		Version:        c.Version,
	}
}
