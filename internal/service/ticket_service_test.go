package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/advisory"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/events"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

type memoryStore struct {
	tickets map[string][]domain.Ticket
	audit   map[string][]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tickets: make(map[string][]domain.Ticket),
		audit:   make(map[string][]string),
	}
}

func (m *memoryStore) Load(_ context.Context, user string) ([]domain.Ticket, error) {
	return append([]domain.Ticket{}, m.tickets[user]...), nil
}

func (m *memoryStore) Save(_ context.Context, user string, tickets []domain.Ticket) error {
	m.tickets[user] = append([]domain.Ticket{}, tickets...)
	return nil
}

func (m *memoryStore) AppendAudit(_ context.Context, user, action, detail string) error {
	entry := action
	if detail != "" {
		entry += " | " + detail
	}
	m.audit[user] = append(m.audit[user], entry)
	return nil
}

func (m *memoryStore) ReadAudit(_ context.Context, user string, limit int) ([]string, error) {
	entries := m.audit[user]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return append([]string{}, entries...), nil
}

func (m *memoryStore) Ping(_ context.Context) error { return nil }

// countingAdvisory wraps the stand-in client and counts invocations.
type countingAdvisory struct {
	inner            advisory.Client
	priorityCalls    int
	completenessCall int
	priorityOverride *domain.PriorityAnalysis
}

func (c *countingAdvisory) JudgePriority(ctx context.Context, in advisory.TicketInput) domain.PriorityAnalysis {
	c.priorityCalls++
	if c.priorityOverride != nil {
		return *c.priorityOverride
	}
	return c.inner.JudgePriority(ctx, in)
}

func (c *countingAdvisory) JudgeCompleteness(ctx context.Context, in advisory.TicketInput) domain.ValidationReport {
	c.completenessCall++
	return c.inner.JudgeCompleteness(ctx, in)
}

type fakeJira struct {
	configured bool
	fail       bool
	calls      int
	nextKey    string
}

func (f *fakeJira) Configured() bool { return f.configured }

func (f *fakeJira) CreateIssue(_ context.Context, _ *domain.Ticket) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("tracker unavailable")
	}
	if f.nextKey == "" {
		f.nextKey = "AXIS-1"
	}
	return f.nextKey, nil
}

func newTestService(t *testing.T) (*TicketService, *memoryStore, *countingAdvisory, *fakeJira) {
	t.Helper()
	store := newMemoryStore()
	adv := &countingAdvisory{inner: advisory.NewStandInClient()}
	syncer := &fakeJira{configured: true}
	svc := NewTicketService(TicketDependencies{
		Store:      store,
		Advisory:   adv,
		Jira:       syncer,
		Dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		Logger:     zap.NewNop(),
	})
	return svc, store, adv, syncer
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		Summary:     "GPU overheating",
		Description: "Multiple GPUs showing thermal throttling above 85C",
		Server:      "srv-gpu-301",
		Rack:        "3B-04",
		Priority:    domain.TicketPriorityHigh,
	}
}

func TestCreateTicketRejectsMissingFieldsBeforeAdvisory(t *testing.T) {
	svc, _, adv, _ := newTestService(t)

	input := validInput()
	input.Description = "   "
	_, err := svc.CreateTicket(context.Background(), "tech1", input)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv.priorityCalls != 0 || adv.completenessCall != 0 {
		t.Fatalf("advisory must not be called on rejected input, got %d/%d calls",
			adv.priorityCalls, adv.completenessCall)
	}
}

func TestCreateTicketAgreementStaysDraft(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	// The stand-in judges priority High; matching user priority means no
	// review is needed.
	ticket, err := svc.CreateTicket(context.Background(), "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusDraft {
		t.Errorf("status = %s, want Draft", ticket.Status)
	}
	if ticket.NeedsPriorityReview {
		t.Error("matching priorities must not flag review")
	}
	if len(ticket.ID) != 8 {
		t.Errorf("id %q, want 8-char short id", ticket.ID)
	}
	if ticket.Validation == nil || ticket.PriorityAnalysis == nil {
		t.Fatal("both judgements must be recorded on the ticket")
	}

	entries := store.audit["tech1"]
	if len(entries) != 1 || !strings.HasPrefix(entries[0], "Created ticket "+ticket.ID) {
		t.Errorf("audit entries = %v", entries)
	}
	if !strings.Contains(entries[0], " | GPU overheating") {
		t.Errorf("creation audit must carry the summary as detail: %v", entries[0])
	}
}

func TestCreateTicketMismatchEntersReview(t *testing.T) {
	svc, _, adv, _ := newTestService(t)
	adv.priorityOverride = &domain.PriorityAnalysis{
		CalculatedPriority: domain.TicketPriorityCritical,
		PriorityScore:      9.4,
		Reasoning:          "total outage",
	}

	input := validInput()
	input.Priority = domain.TicketPriorityMedium
	ticket, err := svc.CreateTicket(context.Background(), "tech1", input)
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusAIReview {
		t.Errorf("status = %s, want AI Review", ticket.Status)
	}
	if !ticket.NeedsPriorityReview {
		t.Error("mismatch must flag review")
	}
	if ticket.UserPriority != domain.TicketPriorityMedium {
		t.Error("user priority must be preserved alongside the calculated one")
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	approved, err := svc.Transition(ctx, "tech1", ticket.ID, domain.ActionApprove)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.TicketStatusApproved || approved.NeedsPriorityReview {
		t.Fatalf("after approve: status=%s review=%v", approved.Status, approved.NeedsPriorityReview)
	}

	started, err := svc.Transition(ctx, "tech1", ticket.ID, domain.ActionStart)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatal("start must stamp started_at")
	}

	time.Sleep(5 * time.Millisecond)
	completed, err := svc.Transition(ctx, "tech1", ticket.ID, domain.ActionComplete)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.After(*completed.StartedAt) {
		t.Fatal("completed_at must be after started_at")
	}

	wantAudit := []string{
		"Created ticket " + ticket.ID + " | GPU overheating",
		"Approved ticket " + ticket.ID,
		"Started work on ticket " + ticket.ID,
		"Completed ticket " + ticket.ID,
	}
	got := store.audit["tech1"]
	if len(got) != len(wantAudit) {
		t.Fatalf("audit = %v", got)
	}
	for i, want := range wantAudit {
		if got[i] != want {
			t.Errorf("audit[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestTransitionRejectsActionsNotOffered(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// Draft offers only approve.
	for _, action := range []domain.TicketAction{domain.ActionStart, domain.ActionComplete} {
		if _, err := svc.Transition(ctx, "tech1", ticket.ID, action); err == nil {
			t.Errorf("action %s from Draft must be rejected", action)
		}
	}

	if _, err := svc.Transition(ctx, "tech1", ticket.ID, domain.ActionApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Transition(ctx, "tech1", ticket.ID, domain.ActionApprove); err == nil {
		t.Error("re-approving an approved ticket must be rejected")
	}
}

func TestAdvisoryFailureDefaultsApplied(t *testing.T) {
	svc, _, adv, _ := newTestService(t)
	adv.priorityOverride = func() *domain.PriorityAnalysis {
		a := advisory.DefaultPriorityJudgement(domain.TicketPriorityHigh)
		return &a
	}()

	ticket, err := svc.CreateTicket(context.Background(), "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.CalculatedPriority != domain.TicketPriorityHigh {
		t.Errorf("fallback priority = %s, want user priority High", ticket.CalculatedPriority)
	}
	if float64(ticket.PriorityScore) != 5.0 {
		t.Errorf("fallback score = %v, want 5.0", ticket.PriorityScore)
	}
	if ticket.Status != domain.TicketStatusDraft {
		t.Errorf("fallback matches user priority, want Draft, got %s", ticket.Status)
	}
}

func TestSyncFailureLeavesTicketUntouched(t *testing.T) {
	svc, store, _, syncer := newTestService(t)
	syncer.fail = true
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	statusBefore := ticket.Status

	if _, err := svc.SyncToJira(ctx, "tech1", ticket.ID); err == nil {
		t.Fatal("expected sync failure")
	}

	stored := store.tickets["tech1"][0]
	if stored.JiraKey != "" || stored.JiraSyncedAt != nil {
		t.Error("failed sync must not record a tracker key")
	}
	if stored.Status != statusBefore {
		t.Errorf("status changed on failed sync: %s", stored.Status)
	}

	// Retry succeeds once the tracker recovers.
	syncer.fail = false
	syncer.nextKey = "AXIS-7"
	synced, err := svc.SyncToJira(ctx, "tech1", ticket.ID)
	if err != nil {
		t.Fatalf("retry sync: %v", err)
	}
	if synced.JiraKey != "AXIS-7" || synced.JiraSyncedAt == nil {
		t.Errorf("synced ticket = %+v", synced)
	}
	if synced.Status != statusBefore {
		t.Error("sync must never change the lifecycle status")
	}

	if _, err := svc.SyncToJira(ctx, "tech1", ticket.ID); err == nil {
		t.Error("second sync of the same ticket must be rejected")
	}
}

func TestDeleteTicketRemovesFromList(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	first, _ := svc.CreateTicket(ctx, "tech1", validInput())
	second, _ := svc.CreateTicket(ctx, "tech1", validInput())

	if err := svc.DeleteTicket(ctx, "tech1", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining := store.tickets["tech1"]
	if len(remaining) != 1 || remaining[0].ID != second.ID {
		t.Fatalf("remaining = %v", remaining)
	}
	if _, err := svc.GetTicket(ctx, "tech1", first.ID); err == nil {
		t.Error("deleted ticket must not be retrievable")
	}
	if err := svc.DeleteTicket(ctx, "tech1", first.ID); err == nil {
		t.Error("double delete must report not found")
	}
}

func TestListTicketsFilterAndSort(t *testing.T) {
	svc, _, adv, _ := newTestService(t)
	ctx := context.Background()

	low := advisory.DefaultPriorityJudgement(domain.TicketPriorityLow)
	low.PriorityScore = 2
	adv.priorityOverride = &low
	input := validInput()
	input.Priority = domain.TicketPriorityLow
	if _, err := svc.CreateTicket(ctx, "tech1", input); err != nil {
		t.Fatal(err)
	}

	high := advisory.DefaultPriorityJudgement(domain.TicketPriorityHigh)
	high.PriorityScore = 8
	adv.priorityOverride = &high
	if _, err := svc.CreateTicket(ctx, "tech1", validInput()); err != nil {
		t.Fatal(err)
	}

	all, err := svc.ListTickets(ctx, "tech1", TicketFilter{Sort: SortPriorityScore})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].PriorityScore < all[1].PriorityScore {
		t.Fatalf("priority sort broken: %v", all)
	}

	highOnly, err := svc.ListTickets(ctx, "tech1", TicketFilter{Priority: domain.TicketPriorityHigh})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(highOnly) != 1 || highOnly[0].EffectivePriority() != domain.TicketPriorityHigh {
		t.Fatalf("priority filter = %v", highOnly)
	}
}

func TestAllowedActions(t *testing.T) {
	svc, _, _, syncer := newTestService(t)

	ticket := &domain.Ticket{Status: domain.TicketStatusDraft}
	actions := svc.AllowedActions(ticket)
	want := []domain.TicketAction{domain.ActionApprove, domain.ActionSync, domain.ActionDelete}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %s, want %s", i, actions[i], want[i])
		}
	}

	// Already-synced tickets no longer offer sync.
	ticket.JiraKey = "AXIS-9"
	for _, a := range svc.AllowedActions(ticket) {
		if a == domain.ActionSync {
			t.Error("synced ticket must not offer sync again")
		}
	}

	syncer.configured = false
	ticket.JiraKey = ""
	for _, a := range svc.AllowedActions(ticket) {
		if a == domain.ActionSync {
			t.Error("unconfigured tracker must not offer sync")
		}
	}
}

func TestBulkImport(t *testing.T) {
	svc, store, _, syncer := newTestService(t)
	ctx := context.Background()

	rows := []ImportRow{
		{Server: "srv-a", Rack: "1A-01", Summary: "Fan failure", Description: "Chassis fan dead", Priority: domain.TicketPriorityHigh},
		{Server: "srv-b", Rack: "2B-02", Summary: "Bad DIMM", Description: "ECC errors", Priority: domain.TicketPriorityLow},
		{Server: "srv-c", Rack: "3C-03", Summary: "No description row"},
	}
	result, err := svc.BulkImport(ctx, "tech1", rows, true)
	if err != nil {
		t.Fatalf("BulkImport: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if result.Synced != 2 {
		t.Errorf("synced = %d, want 2", result.Synced)
	}
	if len(result.Failed) != 1 || !strings.Contains(result.Failed[0], "row 3") {
		t.Errorf("failed = %v", result.Failed)
	}
	if syncer.calls != 2 {
		t.Errorf("tracker calls = %d, want 2", syncer.calls)
	}

	entries := store.audit["tech1"]
	last := entries[len(entries)-1]
	if last != "Bulk imported 2 tickets from CSV" {
		t.Errorf("bulk audit = %q", last)
	}
}
