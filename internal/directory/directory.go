package directory

import (
	"context"
	"strings"
	"time"

	"github.com/expenseflow/expenseflow/internal"
)

// Role is never stored on a record. An account's role is decided entirely
// by which collection holds its row; Role on the domain type is filled in
// by the store from the table it read.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ProbeOrder is the fixed order cross-role lookups walk the collections.
var ProbeOrder = []Role{RoleAdmin, RoleManager, RoleEmployee}

// ParseRole normalizes and validates a role string from a request body.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleEmployee:
		return RoleEmployee, nil
	default:
		return "", ErrInvalidRole
	}
}

// Account is a principal in exactly one role collection.
type Account struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ManagerID    *string   `json:"manager_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountView is the combined-listing shape: role made explicit, manager
// reference resolved to a display name when it still points at a manager.
type AccountView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	Manager   *string `json:"manager,omitempty"`
	ManagerID *string `json:"managerId,omitempty"`
}

// Store is the per-role document store. Email uniqueness is scoped to a
// single role's collection; the same email may exist in two collections.
type Store interface {
	Create(ctx context.Context, acct *Account) error
	FindByEmail(ctx context.Context, role Role, email string) (*Account, error)
	FindInRole(ctx context.Context, role Role, id string) (*Account, error)
	Update(ctx context.Context, acct *Account) error
	Delete(ctx context.Context, role Role, id string) error
	ListRole(ctx context.Context, role Role) ([]*Account, error)
	// MoveRole inserts replacement into its role's collection and deletes
	// id from the source collection inside one transaction.
	MoveRole(ctx context.Context, from Role, id string, replacement *Account) error
}

var (
	ErrNotFound     = internal.NewNotFoundError("user not found", internal.ErrCodePrincipalNotFound)
	ErrEmailTaken   = internal.NewConflictError("email already registered for this role", internal.ErrCodeEmailTaken)
	ErrInvalidRole  = internal.NewValidationError("invalid role", internal.ErrCodeInvalidRole)
	ErrWeakPassword = internal.NewValidationError("password must be at least 6 characters", internal.ErrCodeWeakPassword)
)
