package directory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/pkg/keyedmutex"
)

// Service owns account lifecycle: creation, lookup across collections,
// updates, and the cross-collection role move. Role moves on the same
// principal id are serialized through a keyed mutex so a concurrent pair
// cannot duplicate or lose the record.
type Service struct {
	store      Store
	locks      *keyedmutex.KeyedMutex
	bcryptCost int
	logger     *slog.Logger
}

func NewService(store Store, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      store,
		locks:      keyedmutex.New(),
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateAccount writes a new principal into the collection its role names.
// Validation happens before any store mutation.
func (s *Service) CreateAccount(ctx context.Context, dto CreateAccountDTO) (*Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, _ := ParseRole(dto.Role)

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if existing, err := s.store.FindByEmail(ctx, role, email); err == nil && existing != nil {
		s.logger.Warn("create account rejected: email taken", "role", role, "email", email)
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	acct := &Account{
		ID:           uuid.NewString(),
		Role:         role,
		Name:         strings.TrimSpace(dto.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if role == RoleEmployee {
		acct.ManagerID = dto.ManagerID
	}

	if err := s.store.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		"account_id", acct.ID,
		"role", role,
		"actor_id", internal.PrincipalIDFromContext(ctx))
	return acct, nil
}

// FindByEmail looks up one role's collection.
func (s *Service) FindByEmail(ctx context.Context, role Role, email string) (*Account, error) {
	return s.store.FindByEmail(ctx, role, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID walks the collections in the fixed probe order and returns the
// first match. After a role move the old id resolves nowhere and callers
// get ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (*Account, error) {
	for _, role := range ProbeOrder {
		acct, err := s.store.FindInRole(ctx, role, id)
		if err == nil {
			return acct, nil
		}
		if appErr, ok := internal.IsAppError(err); !ok || appErr.Type != internal.ErrorTypeNotFound {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// SetRole updates a principal, moving it between collections when the
// target role differs from the current one. The move is all-or-nothing:
// insert-into-target and delete-from-source share one transaction, so a
// failure leaves the original row untouched. The moved principal gets a
// fresh identifier; the old one stops resolving.
func (s *Service) SetRole(ctx context.Context, id string, dto UpdateAccountDTO) (*Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	targetRole := current.Role
	if dto.Role != "" {
		targetRole, _ = ParseRole(dto.Role)
	}

	var newHash string
	if dto.Password != "" {
		hash, herr := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if herr != nil {
			return nil, internal.NewInternalError("failed to hash password", herr)
		}
		newHash = string(hash)
	}

	if targetRole == current.Role {
		return s.updateInPlace(ctx, current, dto, newHash)
	}
	return s.moveRole(ctx, current, targetRole, dto, newHash)
}

func (s *Service) updateInPlace(ctx context.Context, current *Account, dto UpdateAccountDTO, newHash string) (*Account, error) {
	if dto.Name != "" {
		current.Name = strings.TrimSpace(dto.Name)
	}
	if dto.Email != "" {
		current.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	}
	if newHash != "" {
		current.PasswordHash = newHash
	}
	// An absent managerId keeps the current assignment; an explicit empty
	// string clears it.
	if current.Role == RoleEmployee && dto.ManagerID != nil {
		if *dto.ManagerID == "" {
			current.ManagerID = nil
		} else {
			current.ManagerID = dto.ManagerID
		}
	}

	if err := s.store.Update(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info("account updated", "account_id", current.ID, "role", current.Role)
	return current, nil
}

func (s *Service) moveRole(ctx context.Context, current *Account, targetRole Role, dto UpdateAccountDTO, newHash string) (*Account, error) {
	replacement := &Account{
		ID:           uuid.NewString(),
		Role:         targetRole,
		Name:         current.Name,
		Email:        current.Email,
		PasswordHash: current.PasswordHash,
		CreatedAt:    time.Now(),
	}
	if dto.Name != "" {
		replacement.Name = strings.TrimSpace(dto.Name)
	}
	if dto.Email != "" {
		replacement.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	}
	if newHash != "" {
		replacement.PasswordHash = newHash
	}
	if targetRole == RoleEmployee {
		replacement.ManagerID = dto.ManagerID
	}

	if existing, err := s.store.FindByEmail(ctx, targetRole, replacement.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	if err := s.store.MoveRole(ctx, current.Role, current.ID, replacement); err != nil {
		return nil, err
	}

	s.logger.Info("account moved between roles",
		"old_account_id", current.ID,
		"new_account_id", replacement.ID,
		"from", current.Role,
		"to", targetRole,
		"actor_id", internal.PrincipalIDFromContext(ctx))
	return replacement, nil
}

// DeleteAccount removes the principal from whichever collection holds it,
// probing in the fixed order.
func (s *Service) DeleteAccount(ctx context.Context, id string) (Role, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	for _, role := range ProbeOrder {
		err := s.store.Delete(ctx, role, id)
		if err == nil {
			s.logger.Info("account deleted",
				"account_id", id,
				"role", role,
				"actor_id", internal.PrincipalIDFromContext(ctx))
			return role, nil
		}
		if appErr, ok := internal.IsAppError(err); !ok || appErr.Type != internal.ErrorTypeNotFound {
			return "", err
		}
	}
	return "", ErrNotFound
}

// ListAccounts returns the combined listing across all three collections,
// admins first, with employee manager references resolved to names. A
// manager_id that no longer resolves (deleted or moved manager) is left
// unresolved rather than failing the listing.
func (s *Service) ListAccounts(ctx context.Context) ([]AccountView, error) {
	managers, err := s.store.ListRole(ctx, RoleManager)
	if err != nil {
		return nil, err
	}
	managerNames := make(map[string]string, len(managers))
	for _, m := range managers {
		managerNames[m.ID] = m.Name
	}

	views := make([]AccountView, 0)
	for _, role := range ProbeOrder {
		accounts := managers
		if role != RoleManager {
			accounts, err = s.store.ListRole(ctx, role)
			if err != nil {
				return nil, err
			}
		}
		for _, acct := range accounts {
			view := AccountView{
				ID:    acct.ID,
				Name:  acct.Name,
				Email: acct.Email,
				Role:  role,
			}
			if acct.ManagerID != nil {
				if name, ok := managerNames[*acct.ManagerID]; ok {
					view.Manager = &name
					view.ManagerID = acct.ManagerID
				}
			}
			views = append(views, view)
		}
	}
	return views, nil
}
