package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusDraft      TicketStatus = "Draft"
	TicketStatusAIReview   TicketStatus = "AI Review"
	TicketStatusApproved   TicketStatus = "Approved"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusCompleted  TicketStatus = "Completed"
	TicketStatusBlocked    TicketStatus = "Blocked"
)

// TicketPriority enumerates the severity scale shared by user-declared
// and calculated priorities.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Valid reports whether the priority is one of the four known levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketAction enumerates lifecycle operations requestable on a ticket.
type TicketAction string

const (
	ActionApprove  TicketAction = "approve"
	ActionStart    TicketAction = "start"
	ActionComplete TicketAction = "complete"
	ActionSync     TicketAction = "sync"
	ActionDelete   TicketAction = "delete"
)

// PriorityAnalysis is the structured priority judgement attached to a ticket.
type PriorityAnalysis struct {
	CalculatedPriority TicketPriority    `json:"calculated_priority"`
	PriorityScore      Score             `json:"priority_score"`
	Reasoning          string            `json:"reasoning"`
	Factors            map[string]string `json:"factors"`
	RecommendedActions []string          `json:"recommended_actions"`
}

// ValidationReport is the structured completeness judgement attached to a ticket.
type ValidationReport struct {
	IsComplete        bool              `json:"is_complete"`
	CompletenessScore Completeness      `json:"completeness_score"`
	MissingFields     []string          `json:"missing_fields"`
	Suggestions       map[string]string `json:"suggestions"`
	AutoEnhanced      map[string]any    `json:"auto_enhanced"`
}

// Ticket is the aggregate for data center operations requests.
type Ticket struct {
	ID                  string            `json:"id"`
	Summary             string            `json:"summary"`
	Description         string            `json:"description"`
	Server              string            `json:"server"`
	Rack                string            `json:"rack"`
	UserPriority        TicketPriority    `json:"user_priority"`
	CalculatedPriority  TicketPriority    `json:"calculated_priority,omitempty"`
	PriorityScore       Score             `json:"priority_score"`
	PriorityAnalysis    *PriorityAnalysis `json:"priority_analysis,omitempty"`
	Validation          *ValidationReport `json:"validation,omitempty"`
	Status              TicketStatus      `json:"status"`
	NeedsPriorityReview bool              `json:"needs_priority_review,omitempty"`
	CreatedBy           string            `json:"created_by"`
	CreatedAt           time.Time         `json:"created_at"`
	StartedAt           *time.Time        `json:"started_at,omitempty"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
	JiraKey             string            `json:"jira_key,omitempty"`
	JiraSyncedAt        *time.Time        `json:"jira_synced_at,omitempty"`
}

// EffectivePriority returns the calculated priority, falling back to the
// user-declared one for records written before analysis existed.
func (t *Ticket) EffectivePriority() TicketPriority {
	if t.CalculatedPriority.Valid() {
		return t.CalculatedPriority
	}
	if t.UserPriority.Valid() {
		return t.UserPriority
	}
	return TicketPriorityMedium
}

// CompletenessValue returns the validation completeness clamped to [0,1],
// or the default when no validation report is attached.
func (t *Ticket) CompletenessValue() float64 {
	if t.Validation == nil {
		return DefaultCompleteness
	}
	return t.Validation.CompletenessScore.Clamped()
}
