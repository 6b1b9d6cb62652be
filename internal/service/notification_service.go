package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/domain"
	"github.com/axis-ops/ticket-service/internal/email"
	"github.com/axis-ops/ticket-service/internal/events"
)

// EmailNotifier is the outbound mail dependency.
type EmailNotifier interface {
	Configured() bool
	Send(recipient, subject, body string, attachment *email.Attachment) error
}

// NotificationService reacts to domain events: every event is logged, and
// critical-priority creations page the ops recipient by email when the mail
// side channel is configured. Notification failure never affects tickets.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     EmailNotifier
	recipient  string
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer EmailNotifier, opsRecipient string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		recipient:  opsRecipient,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketSynced, n.handleTicketSynced)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))

	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.CalculatedPriority != domain.TicketPriorityCritical {
		return nil
	}
	if n.mailer == nil || !n.mailer.Configured() || strings.TrimSpace(n.recipient) == "" {
		return nil
	}

	subject := fmt.Sprintf("[CRITICAL] Ticket %s: %s", event.TicketID, payload.Summary)
	body := fmt.Sprintf(
		"A critical-priority ticket was created by %s.\n\nTicket ID: %s\nSummary: %s\nPriority score: %.1f/10\n",
		event.Actor, event.TicketID, payload.Summary, payload.PriorityScore)
	if err := n.mailer.Send(n.recipient, subject, body, nil); err != nil {
		n.logger.Warn("critical ticket email failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketSynced(_ context.Context, event events.Event) error {
	n.logger.Info("TicketSynced", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("TicketDeleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}
