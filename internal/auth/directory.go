package auth

import (
	"github.com/axis-ops/ticket-service/internal/config"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// Account is one entry in the static user directory.
type Account struct {
	Username     string
	PasswordHash string
	Role         Role
	Name         string
}

// Directory holds the configured accounts. Accounts are seeded from config
// at startup; plaintext seed passwords are hashed once here and never kept.
type Directory struct {
	accounts map[string]Account
}

// NewDirectory hashes the seed passwords and builds the lookup table.
func NewDirectory(users []config.SeedUser, bcryptCost int) (*Directory, error) {
	accounts := make(map[string]Account, len(users))
	for _, u := range users {
		hash, err := HashPassword(u.Password, bcryptCost)
		if err != nil {
			return nil, err
		}
		role := Role(u.Role)
		if !role.Valid() {
			role = RoleTechnician
		}
		accounts[u.Username] = Account{
			Username:     u.Username,
			PasswordHash: hash,
			Role:         role,
			Name:         u.Name,
		}
	}
	return &Directory{accounts: accounts}, nil
}

// Authenticate verifies credentials and returns the matching account.
func (d *Directory) Authenticate(username, password string) (*Account, error) {
	account, ok := d.accounts[username]
	if !ok {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return &account, nil
}

// Lookup returns the account for a username.
func (d *Directory) Lookup(username string) (*Account, bool) {
	account, ok := d.accounts[username]
	if !ok {
		return nil, false
	}
	return &account, true
}
