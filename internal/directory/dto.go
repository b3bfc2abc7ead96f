package directory

import (
	"strings"

	"github.com/expenseflow/expenseflow/internal"
)

const MinPasswordLength = 6

// CreateAccountDTO is the admin-create shape. Password is mandatory here;
// self-service registration goes through the auth package and reuses this
// DTO with the role restricted.
type CreateAccountDTO struct {
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	ManagerID *string `json:"managerId,omitempty"`
}

func (d CreateAccountDTO) Validate() error {
	if strings.TrimSpace(d.Role) == "" || strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("missing fields", internal.ErrCodeMissingFields)
	}
	if _, err := ParseRole(d.Role); err != nil {
		return err
	}
	if len(strings.TrimSpace(d.Password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// UpdateAccountDTO is the admin-update shape. Everything is optional:
// absent role means "keep the current role", absent password means "keep
// the current hash".
type UpdateAccountDTO struct {
	Role      string  `json:"role,omitempty"`
	Name      string  `json:"name,omitempty"`
	Email     string  `json:"email,omitempty"`
	Password  string  `json:"password,omitempty"`
	ManagerID *string `json:"managerId,omitempty"`
}

func (d UpdateAccountDTO) Validate() error {
	if d.Role != "" {
		if _, err := ParseRole(d.Role); err != nil {
			return err
		}
	}
	if d.Password != "" && len(strings.TrimSpace(d.Password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
