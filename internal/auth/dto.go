package auth

import (
	"strings"

	"github.com/expenseflow/expenseflow/internal"
)

// LoginDTO is the transport shape for role-based login requests.
type LoginDTO struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Role) == "" {
		return internal.NewValidationError("role is required", internal.ErrCodeMissingFields)
	}
	if strings.TrimSpace(d.Email) == "" || d.Password == "" {
		return internal.NewValidationError("missing fields", internal.ErrCodeMissingFields)
	}
	return nil
}

// RegisterDTO is the self-service registration shape for managers and
// employees. Admin accounts are only created through user management or
// the seed command.
type RegisterDTO struct {
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	ManagerID *string `json:"managerId,omitempty"`
}

func (d RegisterDTO) Validate() error {
	if strings.TrimSpace(d.Role) == "" || strings.TrimSpace(d.Name) == "" ||
		strings.TrimSpace(d.Email) == "" || d.Password == "" {
		return internal.NewValidationError("missing fields", internal.ErrCodeMissingFields)
	}
	return nil
}
