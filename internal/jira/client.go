// Package jira implements the issue tracker sync target. Sync failures are
// reported to the caller as "not synced"; they never mutate ticket state.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/observability"
)

// IssueType is the tracker issue type used for every mirrored ticket.
const IssueType = "Task"

// priorityNames maps ticket priorities onto Jira priority names.
var priorityNames = map[domain.TicketPriority]string{
	domain.TicketPriorityCritical: "Highest",
	domain.TicketPriorityHigh:     "High",
	domain.TicketPriorityMedium:   "Medium",
	domain.TicketPriorityLow:      "Low",
}

// PriorityName returns the Jira priority label for a ticket priority,
// defaulting to Medium for unknown values.
func PriorityName(p domain.TicketPriority) string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "Medium"
}

// Client creates issues over the Jira REST v3 API.
type Client struct {
	cfg     config.JiraConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient constructs the sync client.
func NewClient(cfg config.JiraConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
		metrics: metrics,
	}
}

// Configured reports whether sync can be attempted.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// CreateIssue mirrors a ticket as a Jira issue and returns the issue key.
func (c *Client) CreateIssue(ctx context.Context, ticket *domain.Ticket) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("jira integration not configured")
	}

	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": c.cfg.ProjectKey},
			"summary":     summaryOrDefault(ticket.Summary),
			"description": issueDescription(ticket),
			"issuetype":   map[string]string{"name": IssueType},
			"priority":    map[string]string{"name": PriorityName(ticket.EffectivePriority())},
			"labels":      issueLabels(ticket),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := c.cfg.BaseURL + "/rest/api/3/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.Email, c.cfg.APIToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordJiraSync(false)
		c.logger.Warn("jira request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordJiraSync(false)
		c.logger.Warn("jira rejected issue create", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("jira returned status %d", resp.StatusCode)
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		c.metrics.RecordJiraSync(false)
		return "", fmt.Errorf("decode jira response: %w", err)
	}
	if created.Key == "" {
		c.metrics.RecordJiraSync(false)
		return "", fmt.Errorf("jira response missing issue key")
	}
	c.metrics.RecordJiraSync(true)
	return created.Key, nil
}

func issueDescription(t *domain.Ticket) string {
	reasoning := "N/A"
	if t.PriorityAnalysis != nil && t.PriorityAnalysis.Reasoning != "" {
		reasoning = t.PriorityAnalysis.Reasoning
	}
	return fmt.Sprintf(`*Ticket ID:* %s

*Server:* %s
*Rack:* %s
*Priority Score:* %.1f/10

*Description:*
%s

*AI Analysis:*
%s

*Created by:* %s
*Created at:* %s
`,
		t.ID,
		valueOrNA(t.Server),
		valueOrNA(t.Rack),
		float64(t.PriorityScore),
		t.Description,
		reasoning,
		t.CreatedBy,
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
}

func issueLabels(t *domain.Ticket) []string {
	labels := []string{"axis-" + t.ID, "data-center"}
	if t.Server != "" {
		labels = append(labels, "server-"+t.Server)
	}
	if t.Rack != "" {
		labels = append(labels, "rack-"+t.Rack)
	}
	return labels
}

func basicAuth(email, token string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + token))
}

func summaryOrDefault(s string) string {
	if s == "" {
		return "Untitled Ticket"
	}
	return s
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
