package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/directory"
)

// DirectoryAPI is the slice of account directory the auth service needs.
type DirectoryAPI interface {
	FindByEmail(ctx context.Context, role directory.Role, email string) (*directory.Account, error)
	FindByID(ctx context.Context, id string) (*directory.Account, error)
	CreateAccount(ctx context.Context, dto directory.CreateAccountDTO) (*directory.Account, error)
}

// Service authenticates principals against their role's credential
// collection. There is exactly one verification path: the stored bcrypt
// hash. The bootstrap admin pair only ever enters the system through the
// seed command, hashed like any other credential.
type Service struct {
	accounts DirectoryAPI
	tokens   TokenGenerator
	logger   *slog.Logger
}

func NewService(accounts DirectoryAPI, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login verifies credentials against the collection the role names and
// issues a session assertion. Unknown email and wrong password produce
// the same Unauthorized answer, so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := directory.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.FindByEmail(ctx, role, dto.Email)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			s.logger.Warn("login failed: unknown email", "role", role)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "role", role, "account_id", acct.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(acct.ID, role)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign session token", err)
	}

	s.logger.Info("login successful", "account_id", acct.ID, "role", role)

	return &LoginResult{
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: RedirectFor(role),
		User: SessionAccount{
			ID:    acct.ID,
			Name:  acct.Name,
			Email: acct.Email,
			Role:  role,
		},
	}, nil
}

// Register creates a manager or employee account through self-service.
// Admin registration is not exposed here.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*directory.Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := directory.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}
	if role == directory.RoleAdmin {
		return nil, directory.ErrInvalidRole
	}

	return s.accounts.CreateAccount(ctx, directory.CreateAccountDTO{
		Role:      string(role),
		Name:      dto.Name,
		Email:     dto.Email,
		Password:  dto.Password,
		ManagerID: dto.ManagerID,
	})
}

// SessionFor validates a token and resolves its principal back through
// the directory probe. A stale assertion whose principal moved role or
// was deleted no longer resolves and is treated as invalid.
func (s *Service) SessionFor(ctx context.Context, tokenString string) (*Session, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.FindByID(ctx, claims.PrincipalID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// A move produces a new id, so a resolvable id always still carries
	// the role it was issued for.
	if string(acct.Role) != claims.Role {
		return nil, ErrInvalidToken
	}

	return &Session{
		PrincipalID: acct.ID,
		Role:        acct.Role,
		Name:        acct.Name,
		Email:       acct.Email,
	}, nil
}

// JWTTokenGenerator signs session assertions with HS256.
type JWTTokenGenerator struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &JWTTokenGenerator{
		Secret: []byte(secret),
		TTL:    ttl,
	}
}

func (j *JWTTokenGenerator) Generate(principalID string, role directory.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.TTL)

	claims := &Claims{
		PrincipalID: principalID,
		Role:        string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   principalID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (j *JWTTokenGenerator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
