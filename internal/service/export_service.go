package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/email"
	"github.com/axis-ops/ticket-service/internal/jira"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// ExportService renders ticket collections as CSV documents and mails them
// out on request.
type ExportService struct {
	tickets *TicketService
	mailer  EmailNotifier
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(tickets *TicketService, mailer EmailNotifier, logger *zap.Logger) *ExportService {
	return &ExportService{tickets: tickets, mailer: mailer, logger: logger}
}

var summaryHeader = []string{
	"Ticket ID", "Jira Key", "Status", "Priority", "Priority Score",
	"Summary", "Server", "Rack", "Created", "Created By", "Completeness",
}

// SummaryCSV renders the user's tickets as a flat summary table.
func (s *ExportService) SummaryCSV(ctx context.Context, username string) ([]byte, error) {
	tickets, err := s.tickets.ListTickets(ctx, username, TicketFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(summaryHeader)
	for _, t := range tickets {
		_ = w.Write([]string{
			t.ID,
			t.JiraKey,
			string(t.Status),
			string(t.EffectivePriority()),
			fmt.Sprintf("%g", float64(t.PriorityScore)),
			t.Summary,
			t.Server,
			t.Rack,
			t.CreatedAt.Format(time.RFC3339),
			t.CreatedBy,
			fmt.Sprintf("%.0f%%", t.CompletenessValue()*100),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

var jiraHeader = []string{
	"Summary", "Issue Type", "Priority", "Status", "Description", "Labels",
	"Reporter", "Created", "Custom Field (Axis ID)", "Custom Field (Server)",
	"Custom Field (Rack)", "Custom Field (Priority Score)",
}

// JiraCSV renders tickets in the tracker's bulk-import CSV format.
func (s *ExportService) JiraCSV(ctx context.Context, username string) ([]byte, error) {
	tickets, err := s.tickets.ListTickets(ctx, username, TicketFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(jiraHeader)
	for _, t := range tickets {
		reasoning := "N/A"
		if t.PriorityAnalysis != nil && t.PriorityAnalysis.Reasoning != "" {
			reasoning = t.PriorityAnalysis.Reasoning
		}
		description := fmt.Sprintf(
			"Server: %s\nRack: %s\nPriority Score: %.1f/10\n\n%s\n\nAI Analysis:\n%s",
			t.Server, t.Rack, float64(t.PriorityScore), t.Description, reasoning)

		_ = w.Write([]string{
			t.Summary,
			jira.IssueType,
			jira.PriorityName(t.EffectivePriority()),
			string(t.Status),
			description,
			fmt.Sprintf("axis-%s,data-center,server-%s,rack-%s", t.ID, t.Server, t.Rack),
			t.CreatedBy,
			t.CreatedAt.Format(time.RFC3339),
			t.ID,
			t.Server,
			t.Rack,
			fmt.Sprintf("%g", float64(t.PriorityScore)),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// EmailExport sends a CSV export as an attachment to the recipient.
func (s *ExportService) EmailExport(ctx context.Context, username, recipient, kind string) error {
	if s.mailer == nil || !s.mailer.Configured() {
		return apperrors.NewConflict("email sender not configured", nil)
	}

	var (
		content  []byte
		filename string
		err      error
	)
	stamp := time.Now().Format("20060102_150405")
	switch kind {
	case "jira":
		content, err = s.JiraCSV(ctx, username)
		filename = "jira_import_" + stamp + ".csv"
	default:
		content, err = s.SummaryCSV(ctx, username)
		filename = fmt.Sprintf("axis_tickets_%s_%s.csv", username, stamp)
	}
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hello,\n\nPlease find attached the Axis ticket export.\n\nExport generated on: %s\n\nBest regards,\nAxis Ticket Management System",
		time.Now().Format("2006-01-02 15:04:05"))
	return s.mailer.Send(recipient, "Axis Ticket Export", body, &email.Attachment{
		Filename: filename,
		Content:  content,
	})
}

// ParseImportCSV reads a ticket import CSV. The header row is required;
// columns `server`, `rack`, and `issue` (or `summary`) are recognized,
// `description` and `priority` are optional. Missing server/rack fall back
// to "unknown", missing summary to "Imported ticket".
func ParseImportCSV(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewValidationError("empty or unreadable CSV", nil)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []ImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError("malformed CSV row", map[string]any{"error": err.Error()})
		}

		summary := field(record, "issue")
		if summary == "" {
			summary = field(record, "summary")
		}
		if summary == "" {
			summary = "Imported ticket"
		}
		server := field(record, "server")
		if server == "" {
			server = "unknown"
		}
		rack := field(record, "rack")
		if rack == "" {
			rack = "unknown"
		}

		rows = append(rows, ImportRow{
			Server:      server,
			Rack:        rack,
			Summary:     summary,
			Description: field(record, "description"),
			Priority:    domain.TicketPriority(field(record, "priority")),
		})
	}
	return rows, nil
}
