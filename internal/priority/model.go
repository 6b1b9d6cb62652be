// Package priority implements the deterministic weighted scoring model for
// data center tickets. It is the reference baseline for the advisory
// judgement: the same factor rubric is embedded in the advisory prompt, and
// the band mapping keeps categorical labels comparable between the two paths.
package priority

import "github.com/axis-ops/ticket-service/internal/domain"

// Factor level identifiers as they appear in advisory factor breakdowns.
const (
	FactorImpactScope   = "impact_scope"
	FactorServiceImpact = "service_impact"
	FactorUrgency       = "urgency"
	FactorSafety        = "safety"
)

var weights = map[string]map[string]float64{
	FactorImpactScope: {
		"single_server": 1,
		"rack":          3,
		"row":           5,
		"datacenter":    10,
	},
	FactorServiceImpact: {
		"none":           0,
		"degraded":       2,
		"partial_outage": 5,
		"full_outage":    10,
	},
	FactorUrgency: {
		"scheduled":        1,
		"next_maintenance": 2,
		"within_24h":       5,
		"immediate":        10,
	},
	FactorSafety: {
		"none":     0,
		"minor":    3,
		"moderate": 7,
		"critical": 10,
	},
}

// Factors holds one qualitative level per scoring factor.
type Factors struct {
	ImpactScope   string
	ServiceImpact string
	Urgency       string
	Safety        string
}

// FromMap builds Factors from an advisory-style factor breakdown.
func FromMap(m map[string]string) Factors {
	return Factors{
		ImpactScope:   m[FactorImpactScope],
		ServiceImpact: m[FactorServiceImpact],
		Urgency:       m[FactorUrgency],
		Safety:        m[FactorSafety],
	}
}

// Levels returns the known levels for a factor. The result is a copy.
func Levels(factor string) map[string]float64 {
	src, ok := weights[factor]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Weight resolves the weight for a factor level. Unknown or missing levels
// fail open to the lowest weight for that factor.
func Weight(factor, level string) float64 {
	table, ok := weights[factor]
	if !ok {
		return 0
	}
	if w, ok := table[level]; ok {
		return w
	}
	lowest := 0.0
	first := true
	for _, w := range table {
		if first || w < lowest {
			lowest = w
			first = false
		}
	}
	return lowest
}

// Score combines the four factor weights into a single value in [0,10] using
// an arithmetic mean. Raising any one factor level never lowers the score.
func Score(f Factors) float64 {
	sum := Weight(FactorImpactScope, f.ImpactScope) +
		Weight(FactorServiceImpact, f.ServiceImpact) +
		Weight(FactorUrgency, f.Urgency) +
		Weight(FactorSafety, f.Safety)
	return sum / 4
}

// Band maps a 0-10 score onto the categorical priority scale.
func Band(score float64) domain.TicketPriority {
	switch {
	case score >= 9:
		return domain.TicketPriorityCritical
	case score >= 6:
		return domain.TicketPriorityHigh
	case score >= 3:
		return domain.TicketPriorityMedium
	default:
		return domain.TicketPriorityLow
	}
}
