// Package store persists per-user ticket collections and their append-only
// audit trails. Backends are interchangeable; the engine always saves the
// full collection and appends one audit entry per lifecycle action.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/axis-ops/ticket-service/internal/domain"
)

// ErrInvalidUser is returned for usernames unsafe to use as storage keys.
var ErrInvalidUser = errors.New("invalid username")

// Store is the persistence collaborator consumed by the lifecycle engine.
type Store interface {
	Load(ctx context.Context, user string) ([]domain.Ticket, error)
	Save(ctx context.Context, user string, tickets []domain.Ticket) error
	AppendAudit(ctx context.Context, user, action, detail string) error
	ReadAudit(ctx context.Context, user string, limit int) ([]string, error)
	Ping(ctx context.Context) error
}

// auditLine formats one audit entry: "[<ISO-8601 timestamp>] <action>" with
// an optional " | <detail>" suffix.
func auditLine(action, detail string) string {
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), action)
	if detail != "" {
		line += " | " + detail
	}
	return line
}

// validUser rejects usernames that could escape the per-user keyspace.
func validUser(user string) error {
	if user == "" || strings.ContainsAny(user, "/\\:") || strings.Contains(user, "..") {
		return ErrInvalidUser
	}
	return nil
}
