package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/domain"
)

func TestParseImportCSV(t *testing.T) {
	input := strings.Join([]string{
		"server,rack,issue,description,priority",
		"srv-gpu-301,3B-04,GPU overheating,Thermal throttling above 85C,High",
		",,Network flap,Intermittent connectivity,",
		"srv-storage-089,1C-08,Disk array failure,RAID degraded,Critical",
	}, "\n")

	rows, err := ParseImportCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseImportCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Server != "srv-gpu-301" || rows[0].Priority != domain.TicketPriorityHigh {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Server != "unknown" || rows[1].Rack != "unknown" {
		t.Errorf("missing server/rack must default to unknown: %+v", rows[1])
	}
	if rows[1].Summary != "Network flap" {
		t.Errorf("issue column must populate summary: %+v", rows[1])
	}
}

func TestParseImportCSVSummaryColumnFallback(t *testing.T) {
	input := "server,rack,summary,description\nsrv-a,1A-01,Fan failure,Chassis fan dead\nsrv-b,2B-02,,No summary given"
	rows, err := ParseImportCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseImportCSV: %v", err)
	}
	if rows[0].Summary != "Fan failure" {
		t.Errorf("summary column not honored: %+v", rows[0])
	}
	if rows[1].Summary != "Imported ticket" {
		t.Errorf("empty summary must default: %+v", rows[1])
	}
}

func TestParseImportCSVEmpty(t *testing.T) {
	if _, err := ParseImportCSV(strings.NewReader("")); err == nil {
		t.Fatal("empty input must be rejected")
	}
}

func exportFixture(t *testing.T) (*ExportService, string) {
	t.Helper()
	svc, _, _, _ := newTestService(t)
	exports := NewExportService(svc, nil, zap.NewNop())

	ticket, err := svc.CreateTicket(context.Background(), "tech1", validInput())
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return exports, ticket.ID
}

func TestSummaryCSV(t *testing.T) {
	exports, id := exportFixture(t)

	content, err := exports.SummaryCSV(context.Background(), "tech1")
	if err != nil {
		t.Fatalf("SummaryCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[0][0] != "Ticket ID" || records[0][10] != "Completeness" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[0] != id || row[5] != "GPU overheating" {
		t.Errorf("row = %v", row)
	}
	if !strings.HasSuffix(row[10], "%") {
		t.Errorf("completeness must render as a percentage, got %q", row[10])
	}
}

func TestJiraCSV(t *testing.T) {
	exports, id := exportFixture(t)

	content, err := exports.JiraCSV(context.Background(), "tech1")
	if err != nil {
		t.Fatalf("JiraCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[0][1] != "Issue Type" || records[0][8] != "Custom Field (Axis ID)" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[1] != "Task" {
		t.Errorf("issue type = %q", row[1])
	}
	if row[8] != id {
		t.Errorf("axis id = %q, want %s", row[8], id)
	}
	if !strings.Contains(row[5], "axis-"+id) || !strings.Contains(row[5], "data-center") {
		t.Errorf("labels = %q", row[5])
	}
	if !strings.Contains(row[4], "Priority Score: 8.5/10") {
		t.Errorf("description = %q", row[4])
	}
}
