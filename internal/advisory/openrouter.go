package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/observability"
)

const priorityJudgementSystemPrompt = `You are an expert data center operations AI. Analyze tickets and calculate objective priority scores.

Consider:
1. Impact Scope: How many systems/services affected?
2. Service Impact: Is service degraded or completely down?
3. Urgency: Is this causing active issues or preventive?
4. Safety: Any safety concerns for personnel or equipment?

Return JSON with: calculated_priority, priority_score (0-10), reasoning, factors, recommended_actions`

const completenessJudgementSystemPrompt = `You are an expert data center ticket quality analyst. Evaluate tickets for completeness and suggest enhancements.

Check for:
- Clear, specific problem description
- Actionable information
- Relevant technical details
- Proper categorization

Return JSON with: is_complete, completeness_score, missing_fields, suggestions, auto_enhanced`

// OpenRouterClient calls the OpenRouter chat-completions API for judgements.
type OpenRouterClient struct {
	cfg     config.AdvisoryConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewOpenRouterClient constructs the remote client.
func NewOpenRouterClient(cfg config.AdvisoryConfig, logger *zap.Logger, metrics *observability.Metrics) *OpenRouterClient {
	return &OpenRouterClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
		metrics: metrics,
	}
}

// JudgePriority asks the model for a priority judgement. Any failure yields
// the default judgement for the user-declared priority.
func (c *OpenRouterClient) JudgePriority(ctx context.Context, in TicketInput) domain.PriorityAnalysis {
	userPrompt := fmt.Sprintf(`Analyze this ticket and calculate objective priority:

Summary: %s
Description: %s
User Priority: %s
Location: %s / %s

Calculate the actual priority score based on objective factors.`,
		in.Summary, in.Description, priorityOrUnspecified(in.UserPriority), in.Rack, in.Server)

	var payload priorityPayload
	if !c.complete(ctx, priorityJudgementSystemPrompt, userPrompt, &payload) {
		c.metrics.RecordAdvisoryCall("priority", true)
		return DefaultPriorityJudgement(in.UserPriority)
	}
	c.metrics.RecordAdvisoryCall("priority", false)
	analysis := payload.PriorityAnalysis
	// A present-but-structured score coerces to 0; an absent one gets the
	// neutral default.
	if payload.Score != nil {
		analysis.PriorityScore = *payload.Score
	} else {
		analysis.PriorityScore = 5.0
	}
	if !analysis.CalculatedPriority.Valid() {
		analysis.CalculatedPriority = in.UserPriority
		if !analysis.CalculatedPriority.Valid() {
			analysis.CalculatedPriority = domain.TicketPriorityMedium
		}
	}
	return analysis
}

// JudgeCompleteness asks the model for a completeness judgement. Any failure
// yields the default judgement.
func (c *OpenRouterClient) JudgeCompleteness(ctx context.Context, in TicketInput) domain.ValidationReport {
	userPrompt := fmt.Sprintf(`Validate and enhance this ticket:

Summary: %s
Description: %s
Server: %s
Rack: %s
Priority: %s

Provide specific suggestions for improvement.`,
		in.Summary, in.Description, in.Server, in.Rack, in.UserPriority)

	var report domain.ValidationReport
	if !c.complete(ctx, completenessJudgementSystemPrompt, userPrompt, &report) {
		c.metrics.RecordAdvisoryCall("completeness", true)
		return DefaultCompletenessJudgement()
	}
	c.metrics.RecordAdvisoryCall("completeness", false)
	return report
}

// priorityPayload distinguishes an absent priority_score from a present one.
type priorityPayload struct {
	domain.PriorityAnalysis
	Score *domain.Score `json:"priority_score"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completions round trip and decodes the embedded
// JSON object into out. Returns false on any transport, auth, or parse
// failure; the caller substitutes the default judgement.
func (c *OpenRouterClient) complete(ctx context.Context, systemPrompt, userPrompt string, out any) bool {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("advisory request failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("advisory request rejected", zap.Int("status", resp.StatusCode))
		return false
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("advisory response undecodable", zap.Error(err))
		return false
	}
	if len(parsed.Choices) == 0 {
		return false
	}

	content := decodeContent(parsed.Choices[0].Message.Content)
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		c.logger.Warn("advisory response carried no JSON object")
		return false
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		c.logger.Warn("advisory judgement unparsable", zap.Error(err))
		return false
	}
	return true
}

// decodeContent handles both content shapes the API returns: a plain string
// or a list of typed parts.
func decodeContent(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var buf bytes.Buffer
	for _, part := range parts {
		if part.Type == "text" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(part.Text)
		}
	}
	return buf.String()
}

func priorityOrUnspecified(p domain.TicketPriority) string {
	if p == "" {
		return "Not specified"
	}
	return string(p)
}
