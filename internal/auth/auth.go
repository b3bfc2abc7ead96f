package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/directory"
)

// SessionDuration is how long a session assertion stays valid.
const SessionDuration = 2 * time.Hour

// Session is the authenticated principal attached to a request context by
// the middleware. It is rebuilt from the directory on every request, so a
// deleted or role-moved principal stops authenticating immediately.
type Session struct {
	PrincipalID string         `json:"principal_id"`
	Role        directory.Role `json:"role"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
}

func (s *Session) IsAdmin() bool   { return s.Role == directory.RoleAdmin }
func (s *Session) IsManager() bool { return s.Role == directory.RoleManager }

// CanReview reports whether the session may act on the approval queue.
func (s *Session) CanReview() bool {
	return s.Role == directory.RoleManager || s.Role == directory.RoleAdmin
}

// Claims is the signed session assertion payload. Validity is determined
// solely by signature and expiry; nothing is persisted server-side.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator signs and validates session assertions.
type TokenGenerator interface {
	Generate(principalID string, role directory.Role) (token string, expiresAt time.Time, err error)
	Validate(tokenString string) (*Claims, error)
}

// LoginResult is what a successful login returns: the assertion plus the
// role-specific redirect target the client should navigate to.
type LoginResult struct {
	Token      string         `json:"token"`
	ExpiresAt  time.Time      `json:"expires_at"`
	RedirectTo string         `json:"redirectTo"`
	User       SessionAccount `json:"user"`
}

type SessionAccount struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  directory.Role `json:"role"`
}

var (
	ErrInvalidCredentials = internal.NewUnauthorizedError("invalid email or password", internal.ErrCodeInvalidCredentials)
	ErrInvalidToken       = internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	ErrTokenExpired       = internal.NewUnauthorizedError("token has expired", internal.ErrCodeTokenExpired)
	ErrInsufficientRole   = internal.NewForbiddenError("insufficient role", internal.ErrCodeInsufficientRole)
)

type ctxKey string

const sessionKey ctxKey = "session"

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// RedirectFor maps a role to its dashboard path.
func RedirectFor(role directory.Role) string {
	switch role {
	case directory.RoleAdmin:
		return "/admin"
	case directory.RoleManager:
		return "/manager"
	default:
		return "/employee"
	}
}
