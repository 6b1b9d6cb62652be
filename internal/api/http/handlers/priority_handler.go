package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axis-ops/ticket-service/internal/api/dto"
	"github.com/axis-ops/ticket-service/internal/priority"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

var scoringFactors = []string{
	priority.FactorImpactScope,
	priority.FactorServiceImpact,
	priority.FactorUrgency,
	priority.FactorSafety,
}

// PriorityHandler exposes the deterministic scoring baseline directly, for
// callers holding explicit factor levels.
type PriorityHandler struct {
	validate *validator.Validate
}

// NewPriorityHandler constructs handler.
func NewPriorityHandler() *PriorityHandler {
	return &PriorityHandler{validate: validator.New()}
}

// Model GET /priority/model returns the factor rubric: every known level and
// its weight per factor.
func (h *PriorityHandler) Model(c *fiber.Ctx) error {
	rubric := make(map[string]map[string]float64, len(scoringFactors))
	for _, factor := range scoringFactors {
		rubric[factor] = priority.Levels(factor)
	}
	return c.JSON(fiber.Map{"data": rubric})
}

// Preview POST /priority/preview scores a set of factor levels without
// touching any ticket. Unknown levels fail open to the lowest weight.
func (h *PriorityHandler) Preview(c *fiber.Ctx) error {
	var req dto.PriorityPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("factors required", nil)
	}

	factors := priority.FromMap(req.Factors)
	score := priority.Score(factors)
	return c.JSON(fiber.Map{"data": dto.PriorityPreviewResponse{
		Score: score,
		Band:  priority.Band(score),
		Weights: map[string]float64{
			priority.FactorImpactScope:   priority.Weight(priority.FactorImpactScope, factors.ImpactScope),
			priority.FactorServiceImpact: priority.Weight(priority.FactorServiceImpact, factors.ServiceImpact),
			priority.FactorUrgency:       priority.Weight(priority.FactorUrgency, factors.Urgency),
			priority.FactorSafety:        priority.Weight(priority.FactorSafety, factors.Safety),
		},
	}})
}
