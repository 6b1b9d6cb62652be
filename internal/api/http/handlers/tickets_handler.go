package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axis-ops/ticket-service/internal/api/dto"
	"github.com/axis-ops/ticket-service/internal/auth"
	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/service"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	validate *validator.Validate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{
		service:  ticketService,
		validate: validator.New(),
	}
}

func (h *TicketsHandler) respond(c *fiber.Ctx, status int, ticket *domain.Ticket) error {
	return c.Status(status).JSON(fiber.Map{
		"data": dto.TicketFromDomain(ticket, h.service.AllowedActions(ticket)),
	})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"error": err.Error()})
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal.Username, service.TicketCreateInput{
		Summary:     req.Summary,
		Description: req.Description,
		Server:      req.Server,
		Rack:        req.Rack,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, ticket)
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.TicketFilter{
		Status:   domain.TicketStatus(c.Query("status")),
		Priority: domain.TicketPriority(c.Query("priority")),
		Sort:     service.SortKey(c.Query("sort")),
	}
	tickets, err := h.service.ListTickets(c.UserContext(), principal.Username, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i], h.service.AllowedActions(&tickets[i])))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), principal.Username, c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, ticket)
}

// Approve POST /tickets/:id/approve.
func (h *TicketsHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, domain.ActionApprove)
}

// Start POST /tickets/:id/start.
func (h *TicketsHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, domain.ActionStart)
}

// Complete POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, domain.ActionComplete)
}

func (h *TicketsHandler) transition(c *fiber.Ctx, action domain.TicketAction) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Transition(c.UserContext(), principal.Username, c.Params("id"), action)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, ticket)
}

// Sync POST /tickets/:id/sync.
func (h *TicketsHandler) Sync(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.SyncToJira(c.UserContext(), principal.Username, c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, ticket)
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTicket(c.UserContext(), principal.Username, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
