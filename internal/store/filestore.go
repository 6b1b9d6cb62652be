package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/axis-ops/ticket-service/internal/domain"
)

// FileStore keeps one JSON document and one append-only audit log per user
// under a data directory. This is the default backend.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) ticketsPath(user string) string {
	return filepath.Join(s.dir, "tickets_"+user+".json")
}

func (s *FileStore) auditPath(user string) string {
	return filepath.Join(s.dir, "audit_log_"+user+".txt")
}

// Load reads the user's ticket collection. A missing file is an empty
// collection, not an error.
func (s *FileStore) Load(ctx context.Context, user string) ([]domain.Ticket, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.ticketsPath(user))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Ticket{}, nil
		}
		return nil, fmt.Errorf("read tickets: %w", err)
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return tickets, nil
}

// Save writes the full collection for the user.
func (s *FileStore) Save(ctx context.Context, user string, tickets []domain.Ticket) error {
	if err := validUser(user); err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	if err := os.WriteFile(s.ticketsPath(user), data, 0o644); err != nil {
		return fmt.Errorf("write tickets: %w", err)
	}
	return nil
}

// AppendAudit appends one formatted entry to the user's audit log.
func (s *FileStore) AppendAudit(ctx context.Context, user, action, detail string) error {
	if err := validUser(user); err != nil {
		return err
	}
	f, err := os.OpenFile(s.auditPath(user), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(auditLine(action, detail) + "\n"); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ReadAudit returns up to limit most recent entries in chronological order.
func (s *FileStore) ReadAudit(ctx context.Context, user string, limit int) ([]string, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.auditPath(user))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}

// Ping verifies the data directory is usable.
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
