package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/advisory"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/events"
	"github.com/axis-ops/ticket-service/internal/store"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// JiraSyncer is the issue tracker sync target consumed by the engine.
type JiraSyncer interface {
	Configured() bool
	CreateIssue(ctx context.Context, ticket *domain.Ticket) (string, error)
}

// TicketService owns ticket state: it applies the advisory judgements at
// creation, reconciles user vs. calculated priority, and enforces the
// lifecycle state machine.
type TicketService struct {
	store      store.Store
	advisory   advisory.Client
	jira       JiraSyncer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      store.Store
	Advisory   advisory.Client
	Jira       JiraSyncer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Summary     string
	Description string
	Server      string
	Rack        string
	Priority    domain.TicketPriority
}

// SortKey selects the listing order.
type SortKey string

const (
	SortPriorityScore SortKey = "priority_score"
	SortCreatedNewest SortKey = "created_newest"
	SortCreatedOldest SortKey = "created_oldest"
	SortStatus        SortKey = "status"
)

// TicketFilter describes listing filters; zero values mean "all".
type TicketFilter struct {
	Status   domain.TicketStatus
	Priority domain.TicketPriority
	Sort     SortKey
}

// ImportRow is one CSV import record.
type ImportRow struct {
	Server      string
	Rack        string
	Summary     string
	Description string
	Priority    domain.TicketPriority
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int
	Synced   int
	Failed   []string
}

// transitions is the lifecycle state machine: the only actions offered from
// each status. Delete and sync are status-independent and handled separately.
var transitions = map[domain.TicketStatus][]domain.TicketAction{
	domain.TicketStatusDraft:      {domain.ActionApprove},
	domain.TicketStatusAIReview:   {domain.ActionApprove},
	domain.TicketStatusApproved:   {domain.ActionStart},
	domain.TicketStatusInProgress: {domain.ActionComplete},
	domain.TicketStatusCompleted:  {},
	domain.TicketStatusBlocked:    {},
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		advisory:   deps.Advisory,
		jira:       deps.Jira,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket validates input, obtains both advisory judgements, reconciles
// priorities, persists the new ticket, and appends an audit entry. Advisory
// failure never fails creation; only missing required fields do, and those
// are rejected before any advisory call.
func (s *TicketService) CreateTicket(ctx context.Context, username string, input TicketCreateInput) (*domain.Ticket, error) {
	input.Summary = strings.TrimSpace(input.Summary)
	input.Description = strings.TrimSpace(input.Description)
	input.Server = strings.TrimSpace(input.Server)
	input.Rack = strings.TrimSpace(input.Rack)

	if missing := missingFields(input); len(missing) > 0 {
		return nil, apperrors.NewValidationError("required fields missing", map[string]any{
			"fields": missing,
		})
	}

	userPriority := input.Priority
	if !userPriority.Valid() {
		userPriority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		ID:           newTicketID(),
		Summary:      input.Summary,
		Description:  input.Description,
		Server:       input.Server,
		Rack:         input.Rack,
		UserPriority: userPriority,
		Status:       domain.TicketStatusDraft,
		CreatedBy:    username,
		CreatedAt:    time.Now().UTC(),
	}

	advisoryInput := advisory.TicketInput{
		Summary:      ticket.Summary,
		Description:  ticket.Description,
		Server:       ticket.Server,
		Rack:         ticket.Rack,
		UserPriority: ticket.UserPriority,
	}

	// Both judgements run synchronously before the ticket becomes visible;
	// completeness first, then priority.
	validation := s.advisory.JudgeCompleteness(ctx, advisoryInput)
	ticket.Validation = &validation

	analysis := s.advisory.JudgePriority(ctx, advisoryInput)
	ticket.PriorityAnalysis = &analysis
	ticket.CalculatedPriority = analysis.CalculatedPriority
	if !ticket.CalculatedPriority.Valid() {
		ticket.CalculatedPriority = ticket.UserPriority
	}
	ticket.PriorityScore = analysis.PriorityScore

	if ticket.CalculatedPriority != ticket.UserPriority {
		ticket.Status = domain.TicketStatusAIReview
		ticket.NeedsPriorityReview = true
	}

	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tickets = append([]domain.Ticket{*ticket}, tickets...)
	if err := s.store.Save(ctx, username, tickets); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, username, "Created ticket "+ticket.ID, ticket.Summary)

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    username,
		Payload: events.TicketCreatedPayload{
			Summary:            ticket.Summary,
			UserPriority:       ticket.UserPriority,
			CalculatedPriority: ticket.CalculatedPriority,
			PriorityScore:      float64(ticket.PriorityScore),
			NeedsReview:        ticket.NeedsPriorityReview,
		},
	})
	return ticket, nil
}

// AllowedActions lists the operations legal for the ticket right now. The
// public contract only offers transitions valid from the current status.
func (s *TicketService) AllowedActions(ticket *domain.Ticket) []domain.TicketAction {
	actions := append([]domain.TicketAction{}, transitions[ticket.Status]...)
	if s.jira != nil && s.jira.Configured() && ticket.JiraKey == "" {
		actions = append(actions, domain.ActionSync)
	}
	actions = append(actions, domain.ActionDelete)
	return actions
}

// Transition applies one of the approve/start/complete actions, persists the
// collection, and appends an audit entry.
func (s *TicketService) Transition(ctx context.Context, username, ticketID string, action domain.TicketAction) (*domain.Ticket, error) {
	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	idx := indexOf(tickets, ticketID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	ticket := &tickets[idx]

	if !actionOffered(ticket.Status, action) {
		return nil, apperrors.NewConflict("action not available in current status", map[string]any{
			"status": ticket.Status,
			"action": action,
		})
	}

	oldStatus := ticket.Status
	now := time.Now().UTC()
	var auditMsg string

	switch action {
	case domain.ActionApprove:
		ticket.Status = domain.TicketStatusApproved
		ticket.NeedsPriorityReview = false
		auditMsg = "Approved ticket " + ticket.ID
	case domain.ActionStart:
		ticket.Status = domain.TicketStatusInProgress
		ticket.StartedAt = &now
		auditMsg = "Started work on ticket " + ticket.ID
	case domain.ActionComplete:
		ticket.Status = domain.TicketStatusCompleted
		ticket.CompletedAt = &now
		auditMsg = "Completed ticket " + ticket.ID
	default:
		return nil, apperrors.NewConflict("unknown lifecycle action", map[string]any{"action": action})
	}

	if err := s.store.Save(ctx, username, tickets); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, username, auditMsg, "")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    username,
		Payload: events.TicketStatusChangedPayload{
			Action:    action,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	result := *ticket
	return &result, nil
}

// DeleteTicket removes the ticket from the collection. Allowed from any
// status; irreversible.
func (s *TicketService) DeleteTicket(ctx context.Context, username, ticketID string) error {
	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return apperrors.MapError(err)
	}
	idx := indexOf(tickets, ticketID)
	if idx < 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	status := tickets[idx].Status
	tickets = append(tickets[:idx], tickets[idx+1:]...)

	if err := s.store.Save(ctx, username, tickets); err != nil {
		return apperrors.MapError(err)
	}
	s.audit(ctx, username, "Deleted ticket "+ticketID, "")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    username,
		Payload:  events.TicketDeletedPayload{Status: status},
	})
	return nil
}

// SyncToJira mirrors the ticket as a tracked issue. Failure leaves the ticket
// untouched and is retryable; the status never changes either way.
func (s *TicketService) SyncToJira(ctx context.Context, username, ticketID string) (*domain.Ticket, error) {
	if s.jira == nil || !s.jira.Configured() {
		return nil, apperrors.NewSyncFailure("jira integration not configured", nil)
	}
	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	idx := indexOf(tickets, ticketID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	ticket := &tickets[idx]
	if ticket.JiraKey != "" {
		return nil, apperrors.NewConflict("ticket already synced", map[string]any{"jira_key": ticket.JiraKey})
	}

	key, err := s.jira.CreateIssue(ctx, ticket)
	if err != nil {
		s.logger.Warn("jira sync failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, apperrors.NewSyncFailure("ticket not synced", err)
	}

	now := time.Now().UTC()
	ticket.JiraKey = key
	ticket.JiraSyncedAt = &now
	if err := s.store.Save(ctx, username, tickets); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, username, "Synced ticket "+ticket.ID+" to Jira as "+key, "")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSynced,
		TicketID: ticket.ID,
		Actor:    username,
		Payload:  events.TicketSyncedPayload{JiraKey: key},
	})
	result := *ticket
	return &result, nil
}

// GetTicket fetches one ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, username, ticketID string) (*domain.Ticket, error) {
	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	idx := indexOf(tickets, ticketID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	result := tickets[idx]
	return &result, nil
}

// ListTickets returns the user's tickets filtered and sorted.
func (s *TicketService) ListTickets(ctx context.Context, username string, filter TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.EffectivePriority() != filter.Priority {
			continue
		}
		filtered = append(filtered, t)
	}

	switch filter.Sort {
	case SortPriorityScore:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].PriorityScore > filtered[j].PriorityScore
		})
	case SortCreatedOldest:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		})
	case SortStatus:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Status < filtered[j].Status
		})
	default: // SortCreatedNewest
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}
	return filtered, nil
}

// AuditLog returns the most recent audit entries for the user.
func (s *TicketService) AuditLog(ctx context.Context, username string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.store.ReadAudit(ctx, username, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// BulkImport creates one ticket per row, each passing through the full
// creation path (validation, both judgements, reconciliation), optionally
// syncing each new ticket to Jira. Row failures are collected, not fatal.
func (s *TicketService) BulkImport(ctx context.Context, username string, rows []ImportRow, syncToJira bool) (ImportResult, error) {
	var result ImportResult
	for i, row := range rows {
		input := TicketCreateInput{
			Summary:     row.Summary,
			Description: row.Description,
			Server:      row.Server,
			Rack:        row.Rack,
			Priority:    row.Priority,
		}
		ticket, err := s.CreateTicket(ctx, username, input)
		if err != nil {
			result.Failed = append(result.Failed, rowError(i, err))
			continue
		}
		result.Imported++
		if syncToJira {
			if _, err := s.SyncToJira(ctx, username, ticket.ID); err == nil {
				result.Synced++
			}
		}
	}
	if result.Imported > 0 {
		s.audit(ctx, username, "Bulk imported "+strconv.Itoa(result.Imported)+" tickets from CSV", "")
	}
	return result, nil
}

func (s *TicketService) audit(ctx context.Context, username, action, detail string) {
	if err := s.store.AppendAudit(ctx, username, action, detail); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actionOffered(status domain.TicketStatus, action domain.TicketAction) bool {
	for _, candidate := range transitions[status] {
		if candidate == action {
			return true
		}
	}
	return false
}

func missingFields(input TicketCreateInput) []string {
	var missing []string
	if input.Summary == "" {
		missing = append(missing, "summary")
	}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if input.Server == "" {
		missing = append(missing, "server")
	}
	if input.Rack == "" {
		missing = append(missing, "rack")
	}
	return missing
}

func indexOf(tickets []domain.Ticket, id string) int {
	for i := range tickets {
		if tickets[i].ID == id {
			return i
		}
	}
	return -1
}

// newTicketID returns a short opaque id: the first 8 characters of a UUID.
func newTicketID() string {
	return uuid.NewString()[:8]
}

func rowError(row int, err error) string {
	return "row " + strconv.Itoa(row+1) + ": " + err.Error()
}
