package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/directory"
)

// One table per role, no shared base table and no role column: membership
// IS the role. The three record types only differ in the employee's
// manager reference.

type adminRecord struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminRecord) TableName() string { return "admins" }

type managerRecord struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (managerRecord) TableName() string { return "managers" }

type employeeRecord struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	ManagerID    *string   `gorm:"column:manager_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (employeeRecord) TableName() string { return "employees" }

// DirectoryStore implements directory.Store on top of GORM.
type DirectoryStore struct {
	db *gorm.DB
}

func NewDirectoryStore(db *gorm.DB) directory.Store {
	return &DirectoryStore{db: db}
}

func tableFor(role directory.Role) string {
	switch role {
	case directory.RoleAdmin:
		return "admins"
	case directory.RoleManager:
		return "managers"
	default:
		return "employees"
	}
}

// modelFor returns an empty record of the role's table for GORM calls
// that infer the table from the model.
func modelFor(role directory.Role) interface{} {
	switch role {
	case directory.RoleAdmin:
		return &adminRecord{}
	case directory.RoleManager:
		return &managerRecord{}
	default:
		return &employeeRecord{}
	}
}

func toRecord(acct *directory.Account) interface{} {
	switch acct.Role {
	case directory.RoleAdmin:
		return &adminRecord{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: acct.PasswordHash,
			CreatedAt:    acct.CreatedAt,
		}
	case directory.RoleManager:
		return &managerRecord{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: acct.PasswordHash,
			CreatedAt:    acct.CreatedAt,
		}
	default:
		return &employeeRecord{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: acct.PasswordHash,
			ManagerID:    acct.ManagerID,
			CreatedAt:    acct.CreatedAt,
		}
	}
}

// row is the scan target for raw per-table queries; manager_id is only
// selected from employees.
type row struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ManagerID    *string
	CreatedAt    time.Time
}

func (r row) toAccount(role directory.Role) *directory.Account {
	acct := &directory.Account{
		ID:           r.ID,
		Role:         role,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
	if role == directory.RoleEmployee {
		acct.ManagerID = r.ManagerID
	}
	return acct
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return directory.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return directory.ErrEmailTaken
	}
	return internal.NewInternalError("directory store failure", err)
}

func (s *DirectoryStore) Create(ctx context.Context, acct *directory.Account) error {
	if err := s.db.WithContext(ctx).Create(toRecord(acct)).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *DirectoryStore) FindByEmail(ctx context.Context, role directory.Role, email string) (*directory.Account, error) {
	return s.findOne(ctx, role, "email = ?", email)
}

func (s *DirectoryStore) FindInRole(ctx context.Context, role directory.Role, id string) (*directory.Account, error) {
	return s.findOne(ctx, role, "id = ?", id)
}

func (s *DirectoryStore) findOne(ctx context.Context, role directory.Role, cond string, arg interface{}) (*directory.Account, error) {
	var r row
	err := s.db.WithContext(ctx).Table(tableFor(role)).Where(cond, arg).Take(&r).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return r.toAccount(role), nil
}

func (s *DirectoryStore) Update(ctx context.Context, acct *directory.Account) error {
	fields := map[string]interface{}{
		"name":          acct.Name,
		"email":         acct.Email,
		"password_hash": acct.PasswordHash,
	}
	if acct.Role == directory.RoleEmployee {
		fields["manager_id"] = acct.ManagerID
	}

	res := s.db.WithContext(ctx).Model(modelFor(acct.Role)).Where("id = ?", acct.ID).Updates(fields)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (s *DirectoryStore) Delete(ctx context.Context, role directory.Role, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(modelFor(role))
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (s *DirectoryStore) ListRole(ctx context.Context, role directory.Role) ([]*directory.Account, error) {
	var rows []row
	err := s.db.WithContext(ctx).Table(tableFor(role)).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	accounts := make([]*directory.Account, len(rows))
	for i, r := range rows {
		accounts[i] = r.toAccount(role)
	}
	return accounts, nil
}

// MoveRole inserts the replacement into its target table and removes the
// source row in a single transaction, so a failure anywhere leaves the
// original row in place.
func (s *DirectoryStore) MoveRole(ctx context.Context, from directory.Role, id string, replacement *directory.Account) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toRecord(replacement)).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(modelFor(from))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return translateErr(err)
	}
	return nil
}
