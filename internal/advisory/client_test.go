package advisory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"Here you go:\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{`prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`},
		{"no object here", ""},
		{"}{", ""},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefaultJudgements(t *testing.T) {
	analysis := DefaultPriorityJudgement(domain.TicketPriorityHigh)
	if analysis.CalculatedPriority != domain.TicketPriorityHigh {
		t.Errorf("default must keep user priority, got %s", analysis.CalculatedPriority)
	}
	if float64(analysis.PriorityScore) != 5.0 {
		t.Errorf("default score = %v, want 5.0", analysis.PriorityScore)
	}

	analysis = DefaultPriorityJudgement(domain.TicketPriority("Nonsense"))
	if analysis.CalculatedPriority != domain.TicketPriorityMedium {
		t.Errorf("invalid user priority must default to Medium, got %s", analysis.CalculatedPriority)
	}

	report := DefaultCompletenessJudgement()
	if !report.IsComplete || float64(report.CompletenessScore) != domain.DefaultCompleteness {
		t.Errorf("default completeness = %+v", report)
	}
}

func TestStandInDeterministic(t *testing.T) {
	client := NewStandInClient()
	in := TicketInput{Summary: "x", Description: "y", UserPriority: domain.TicketPriorityLow}

	first := client.JudgePriority(context.Background(), in)
	second := client.JudgePriority(context.Background(), in)
	if first.CalculatedPriority != second.CalculatedPriority || first.PriorityScore != second.PriorityScore {
		t.Error("stand-in must be deterministic across calls")
	}
	if first.CalculatedPriority != domain.TicketPriorityHigh {
		t.Errorf("stand-in priority = %s, want High", first.CalculatedPriority)
	}

	report := client.JudgeCompleteness(context.Background(), in)
	if report.IsComplete {
		t.Error("stand-in completeness judgement flags tickets incomplete")
	}
	if len(report.MissingFields) == 0 {
		t.Error("stand-in must suggest missing fields")
	}
}

func remoteClient(endpoint string) *OpenRouterClient {
	return NewOpenRouterClient(config.AdvisoryConfig{
		APIKey:   "test-key",
		Model:    "test-model",
		Endpoint: endpoint,
	}, zap.NewNop(), nil)
}

func chatBody(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%s}}]}`, content)
}

func TestJudgePriorityRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		judgement := `"Analysis follows. {\"calculated_priority\":\"Critical\",\"priority_score\":9.2,\"reasoning\":\"full outage\",\"factors\":{\"impact_scope\":\"row\"},\"recommended_actions\":[\"page on-call\"]}"`
		fmt.Fprint(w, chatBody(judgement))
	}))
	defer srv.Close()

	analysis := remoteClient(srv.URL).JudgePriority(context.Background(), TicketInput{
		Summary:      "Row power loss",
		UserPriority: domain.TicketPriorityHigh,
	})
	if analysis.CalculatedPriority != domain.TicketPriorityCritical {
		t.Errorf("priority = %s, want Critical", analysis.CalculatedPriority)
	}
	if float64(analysis.PriorityScore) != 9.2 {
		t.Errorf("score = %v, want 9.2", analysis.PriorityScore)
	}
	if analysis.Factors["impact_scope"] != "row" {
		t.Errorf("factors = %v", analysis.Factors)
	}
}

func TestJudgePriorityRemotePartsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := `[{"type":"text","text":"{\"calculated_priority\":\"Low\",\"priority_score\":1.5,\"reasoning\":\"cosmetic\"}"}]`
		fmt.Fprint(w, chatBody(parts))
	}))
	defer srv.Close()

	analysis := remoteClient(srv.URL).JudgePriority(context.Background(), TicketInput{UserPriority: domain.TicketPriorityMedium})
	if analysis.CalculatedPriority != domain.TicketPriorityLow {
		t.Errorf("priority = %s, want Low", analysis.CalculatedPriority)
	}
}

func TestJudgePriorityRemoteFailureFallsBack(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusInternalServerError)
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		},
		"no json object": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chatBody(`"I cannot help with that."`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			analysis := remoteClient(srv.URL).JudgePriority(context.Background(), TicketInput{UserPriority: domain.TicketPriorityHigh})
			if analysis.CalculatedPriority != domain.TicketPriorityHigh {
				t.Errorf("fallback priority = %s, want user priority", analysis.CalculatedPriority)
			}
			if float64(analysis.PriorityScore) != 5.0 {
				t.Errorf("fallback score = %v, want 5.0", analysis.PriorityScore)
			}
		})
	}
}

func TestJudgePriorityRemoteCoercesStructuredScore(t *testing.T) {
	// Models occasionally return priority_score as an object; the scalar
	// contract still holds.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		judgement := `"{\"calculated_priority\":\"High\",\"priority_score\":{\"value\":8,\"confidence\":0.9},\"reasoning\":\"drift\"}"`
		fmt.Fprint(w, chatBody(judgement))
	}))
	defer srv.Close()

	analysis := remoteClient(srv.URL).JudgePriority(context.Background(), TicketInput{UserPriority: domain.TicketPriorityHigh})
	if float64(analysis.PriorityScore) != 0 {
		t.Errorf("structured score must coerce to 0, got %v", analysis.PriorityScore)
	}
	if analysis.CalculatedPriority != domain.TicketPriorityHigh {
		t.Errorf("priority = %s", analysis.CalculatedPriority)
	}
}

func TestJudgePriorityRemoteAbsentScoreDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		judgement := `"{\"calculated_priority\":\"Medium\",\"reasoning\":\"routine\"}"`
		fmt.Fprint(w, chatBody(judgement))
	}))
	defer srv.Close()

	analysis := remoteClient(srv.URL).JudgePriority(context.Background(), TicketInput{UserPriority: domain.TicketPriorityMedium})
	if float64(analysis.PriorityScore) != 5.0 {
		t.Errorf("absent score must default to 5.0, got %v", analysis.PriorityScore)
	}
}

func TestJudgeCompletenessRemoteFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	report := remoteClient(srv.URL).JudgeCompleteness(context.Background(), TicketInput{})
	if !report.IsComplete || float64(report.CompletenessScore) != domain.DefaultCompleteness {
		t.Errorf("fallback completeness = %+v", report)
	}
}

func TestNewSelectsStandInWithoutKey(t *testing.T) {
	client := New(config.AdvisoryConfig{}, zap.NewNop(), nil)
	if _, ok := client.(*StandInClient); !ok {
		t.Fatalf("client = %T, want stand-in", client)
	}

	client = New(config.AdvisoryConfig{APIKey: "k", Endpoint: "http://localhost"}, zap.NewNop(), nil)
	if _, ok := client.(*OpenRouterClient); !ok {
		t.Fatalf("client = %T, want remote", client)
	}
}
