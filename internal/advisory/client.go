// Package advisory produces structured priority and completeness judgements
// for tickets. Judgements are advisory: every failure mode collapses into a
// deterministic default so that ticket creation never fails on this path.
package advisory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/observability"
)

// TicketInput carries the raw fields a judgement is formed from.
type TicketInput struct {
	Summary      string
	Description  string
	Server       string
	Rack         string
	UserPriority domain.TicketPriority
}

// Client produces the two judgements used at ticket creation. Implementations
// must not return errors; unreachable or malformed backends degrade to the
// default judgements.
type Client interface {
	JudgePriority(ctx context.Context, in TicketInput) domain.PriorityAnalysis
	JudgeCompleteness(ctx context.Context, in TicketInput) domain.ValidationReport
}

// New selects the remote client when an API key is configured and the local
// stand-in otherwise.
func New(cfg config.AdvisoryConfig, logger *zap.Logger, metrics *observability.Metrics) Client {
	if cfg.Configured() {
		return NewOpenRouterClient(cfg, logger, metrics)
	}
	logger.Info("advisory API key not configured, using local stand-in")
	return NewStandInClient()
}

// DefaultPriorityJudgement is returned whenever a priority judgement cannot
// be obtained: the user-declared priority is kept at a neutral score.
func DefaultPriorityJudgement(userPriority domain.TicketPriority) domain.PriorityAnalysis {
	if !userPriority.Valid() {
		userPriority = domain.TicketPriorityMedium
	}
	return domain.PriorityAnalysis{
		CalculatedPriority: userPriority,
		PriorityScore:      5.0,
		Reasoning:          "Unable to calculate detailed score",
		Factors:            map[string]string{},
		RecommendedActions: []string{},
	}
}

// DefaultCompletenessJudgement is returned whenever a completeness judgement
// cannot be obtained; it treats the ticket as acceptable.
func DefaultCompletenessJudgement() domain.ValidationReport {
	return domain.ValidationReport{
		IsComplete:        true,
		CompletenessScore: domain.DefaultCompleteness,
		MissingFields:     []string{},
		Suggestions:       map[string]string{},
		AutoEnhanced:      map[string]any{},
	}
}

// extractJSON pulls the first top-level JSON object out of free-form model
// output (first '{' to last '}'). Returns "" when no object is present.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
