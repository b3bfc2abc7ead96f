package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/expenseflow/expenseflow/internal/directory"
	directorystore "github.com/expenseflow/expenseflow/internal/directory/postgres"
	"github.com/expenseflow/expenseflow/internal/expense"
	expensestore "github.com/expenseflow/expenseflow/internal/expense/postgres"
	"github.com/expenseflow/expenseflow/pkg/logger"
)

var seedSamples bool

// The seed command is the only place the bootstrap admin credential pair
// enters the system. It is stored hashed like any other credential, so
// login has exactly one verification path.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the bootstrap admin account",
	Long:  `Seed the bootstrap admin account (and optionally sample data) for development and first deployment.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		store := directorystore.NewDirectoryStore(gormDB)
		accounts := directory.NewService(store, cfg.Security.BCryptCost, logger.L())
		ctx := context.Background()

		ensureAccount(ctx, accounts, directory.CreateAccountDTO{
			Role:     string(directory.RoleAdmin),
			Name:     cfg.Bootstrap.AdminName,
			Email:    cfg.Bootstrap.AdminEmail,
			Password: cfg.Bootstrap.AdminPassword,
		})

		if !seedSamples {
			return
		}

		managerID := ensureAccount(ctx, accounts, directory.CreateAccountDTO{
			Role:     string(directory.RoleManager),
			Name:     "Maya Manager",
			Email:    "maya.manager@example.com",
			Password: "manager123",
		})

		employeeID := ensureAccount(ctx, accounts, directory.CreateAccountDTO{
			Role:      string(directory.RoleEmployee),
			Name:      "Evan Employee",
			Email:     "evan.employee@example.com",
			Password:  "employee123",
			ManagerID: &managerID,
		})

		seedExpenses(ctx, gormDB, employeeID, "Evan Employee")
	},
}

func ensureAccount(ctx context.Context, accounts *directory.Service, dto directory.CreateAccountDTO) string {
	role, err := directory.ParseRole(dto.Role)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	if existing, err := accounts.FindByEmail(ctx, role, dto.Email); err == nil && existing != nil {
		fmt.Printf("%s %s already exists\n", dto.Role, dto.Email)
		return existing.ID
	}

	acct, err := accounts.CreateAccount(ctx, dto)
	if err != nil {
		log.Fatalf("seed: failed to create %s %s: %v", dto.Role, dto.Email, err)
	}
	fmt.Printf("seeded %s %s\n", dto.Role, dto.Email)
	return acct.ID
}

func seedExpenses(ctx context.Context, gormDB *gorm.DB, submitterID, payer string) {
	repo := expensestore.NewExpenseRepository(gormDB)

	existing, err := repo.GetBySubmitter(ctx, submitterID, 1, 0)
	if err != nil {
		log.Fatalf("seed: failed to check expenses: %v", err)
	}
	if len(existing) > 0 {
		fmt.Println("sample expenses already exist")
		return
	}

	samples := []expense.CreateExpenseDTO{
		{Amount: 42.50, Currency: "USD", Category: "Meals", Description: "Team lunch", PaidBy: payer, ExpenseDate: time.Now().AddDate(0, 0, -3)},
		{Amount: 180.00, Currency: "USD", Category: "Travel", Description: "Train to client site", PaidBy: payer, ExpenseDate: time.Now().AddDate(0, 0, -2)},
		{Amount: 19.99, Currency: "USD", Category: "Office", Description: "Notebook and pens", PaidBy: payer, ExpenseDate: time.Now().AddDate(0, 0, -1)},
	}

	for _, dto := range samples {
		now := time.Now()
		exp := &expense.Expense{
			ID:          uuid.NewString(),
			SubmitterID: submitterID,
			PaidBy:      dto.PaidBy,
			Amount:      dto.Amount,
			Currency:    dto.Currency,
			Category:    dto.Category,
			Description: dto.Description,
			ExpenseDate: dto.ExpenseDate,
			Status:      expense.StatusPending,
			SubmittedAt: now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, exp); err != nil {
			log.Fatalf("seed: failed to create expense: %v", err)
		}
	}
	fmt.Printf("seeded %d sample expenses\n", len(samples))
}
