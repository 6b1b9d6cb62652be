package dto

import (
	"time"

	"github.com/axis-ops/ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Summary     string                `json:"summary" validate:"required"`
	Description string                `json:"description" validate:"required"`
	Server      string                `json:"server" validate:"required"`
	Rack        string                `json:"rack" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
}

// TicketResponse is the full ticket view plus the actions currently offered.
type TicketResponse struct {
	ID                  string                   `json:"id"`
	Summary             string                   `json:"summary"`
	Description         string                   `json:"description"`
	Server              string                   `json:"server"`
	Rack                string                   `json:"rack"`
	UserPriority        domain.TicketPriority    `json:"user_priority"`
	CalculatedPriority  domain.TicketPriority    `json:"calculated_priority"`
	PriorityScore       float64                  `json:"priority_score"`
	PriorityAnalysis    *domain.PriorityAnalysis `json:"priority_analysis,omitempty"`
	Validation          *domain.ValidationReport `json:"validation,omitempty"`
	Status              domain.TicketStatus      `json:"status"`
	NeedsPriorityReview bool                     `json:"needs_priority_review"`
	CreatedBy           string                   `json:"created_by"`
	CreatedAt           time.Time                `json:"created_at"`
	StartedAt           *time.Time               `json:"started_at,omitempty"`
	CompletedAt         *time.Time               `json:"completed_at,omitempty"`
	JiraKey             string                   `json:"jira_key,omitempty"`
	JiraSyncedAt        *time.Time               `json:"jira_synced_at,omitempty"`
	AllowedActions      []domain.TicketAction    `json:"allowed_actions"`
}

// TicketFromDomain maps a ticket onto the response shape.
func TicketFromDomain(t *domain.Ticket, actions []domain.TicketAction) TicketResponse {
	return TicketResponse{
		ID:                  t.ID,
		Summary:             t.Summary,
		Description:         t.Description,
		Server:              t.Server,
		Rack:                t.Rack,
		UserPriority:        t.UserPriority,
		CalculatedPriority:  t.CalculatedPriority,
		PriorityScore:       float64(t.PriorityScore),
		PriorityAnalysis:    t.PriorityAnalysis,
		Validation:          t.Validation,
		Status:              t.Status,
		NeedsPriorityReview: t.NeedsPriorityReview,
		CreatedBy:           t.CreatedBy,
		CreatedAt:           t.CreatedAt,
		StartedAt:           t.StartedAt,
		CompletedAt:         t.CompletedAt,
		JiraKey:             t.JiraKey,
		JiraSyncedAt:        t.JiraSyncedAt,
		AllowedActions:      actions,
	}
}

// ImportResponse summarizes a bulk CSV import.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Synced   int      `json:"synced"`
	Failed   []string `json:"failed,omitempty"`
}

// EmailExportRequest payload.
type EmailExportRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Kind      string `json:"kind" validate:"omitempty,oneof=summary jira"`
}
