package dto

import "github.com/axis-ops/ticket-service/internal/domain"

// PriorityPreviewRequest carries one qualitative level per scoring factor.
type PriorityPreviewRequest struct {
	Factors map[string]string `json:"factors" validate:"required"`
}

// PriorityPreviewResponse is the deterministic baseline result.
type PriorityPreviewResponse struct {
	Score   float64               `json:"score"`
	Band    domain.TicketPriority `json:"band"`
	Weights map[string]float64    `json:"weights"`
}
