package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
)

func TestPriorityName(t *testing.T) {
	cases := []struct {
		in   domain.TicketPriority
		want string
	}{
		{domain.TicketPriorityCritical, "Highest"},
		{domain.TicketPriorityHigh, "High"},
		{domain.TicketPriorityMedium, "Medium"},
		{domain.TicketPriorityLow, "Low"},
		{domain.TicketPriority("Bogus"), "Medium"},
	}
	for _, tc := range cases {
		if got := PriorityName(tc.in); got != tc.want {
			t.Errorf("PriorityName(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:                 "a1b2c3d4",
		Summary:            "Disk array failure",
		Description:        "RAID degraded, two drives with SMART errors",
		Server:             "srv-storage-089",
		Rack:               "1C-08",
		UserPriority:       domain.TicketPriorityHigh,
		CalculatedPriority: domain.TicketPriorityCritical,
		PriorityScore:      9.1,
		Status:             domain.TicketStatusApproved,
		CreatedBy:          "tech1",
		CreatedAt:          time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateIssue(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Basic ") {
			t.Errorf("missing basic auth header, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"AXIS-42"}`))
	}))
	defer srv.Close()

	client := NewClient(config.JiraConfig{
		BaseURL:    srv.URL,
		Email:      "ops@example.com",
		APIToken:   "token",
		ProjectKey: "AXIS",
	}, zap.NewNop(), nil)

	key, err := client.CreateIssue(context.Background(), sampleTicket())
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if key != "AXIS-42" {
		t.Fatalf("key = %s, want AXIS-42", key)
	}

	fields := captured["fields"].(map[string]any)
	if fields["summary"] != "Disk array failure" {
		t.Errorf("summary = %v", fields["summary"])
	}
	if prio := fields["priority"].(map[string]any)["name"]; prio != "Highest" {
		t.Errorf("priority name = %v, want Highest (calculated Critical wins)", prio)
	}
	labels := fields["labels"].([]any)
	if labels[0] != "axis-a1b2c3d4" || labels[1] != "data-center" {
		t.Errorf("labels = %v", labels)
	}
	desc := fields["description"].(string)
	if !strings.Contains(desc, "srv-storage-089") || !strings.Contains(desc, "9.1/10") {
		t.Errorf("description missing ticket context: %s", desc)
	}
}

func TestCreateIssueServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.JiraConfig{
		BaseURL:  srv.URL,
		Email:    "ops@example.com",
		APIToken: "token",
	}, zap.NewNop(), nil)

	if _, err := client.CreateIssue(context.Background(), sampleTicket()); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestCreateIssueUnconfigured(t *testing.T) {
	client := NewClient(config.JiraConfig{}, zap.NewNop(), nil)
	if client.Configured() {
		t.Fatal("empty config must not report configured")
	}
	if _, err := client.CreateIssue(context.Background(), sampleTicket()); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}
