package auth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/directory"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// Mock directory for testing, keyed by role then email.
type mockDirectory struct {
	byEmail map[directory.Role]map[string]*directory.Account
	byID    map[string]*directory.Account
	created []directory.CreateAccountDTO
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		byEmail: map[directory.Role]map[string]*directory.Account{
			directory.RoleAdmin:    {},
			directory.RoleManager:  {},
			directory.RoleEmployee: {},
		},
		byID: map[string]*directory.Account{},
	}
}

func (m *mockDirectory) add(acct *directory.Account) {
	m.byEmail[acct.Role][acct.Email] = acct
	m.byID[acct.ID] = acct
}

func (m *mockDirectory) FindByEmail(ctx context.Context, role directory.Role, email string) (*directory.Account, error) {
	if acct, ok := m.byEmail[role][email]; ok {
		return acct, nil
	}
	return nil, directory.ErrNotFound
}

func (m *mockDirectory) FindByID(ctx context.Context, id string) (*directory.Account, error) {
	if acct, ok := m.byID[id]; ok {
		return acct, nil
	}
	return nil, directory.ErrNotFound
}

func (m *mockDirectory) CreateAccount(ctx context.Context, dto directory.CreateAccountDTO) (*directory.Account, error) {
	m.created = append(m.created, dto)
	role, err := directory.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}
	acct := &directory.Account{
		ID:    "created-" + dto.Email,
		Role:  role,
		Name:  dto.Name,
		Email: dto.Email,
	}
	m.add(acct)
	return acct, nil
}

func hashFor(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	Expect(err).ToNot(HaveOccurred())
	return string(hash)
}

var _ = Describe("AuthService", func() {
	var (
		service *auth.Service
		dir     *mockDirectory
		tokens  *auth.JWTTokenGenerator
		ctx     context.Context
	)

	BeforeEach(func() {
		dir = newMockDirectory()
		tokens = auth.NewJWTTokenGenerator("test-secret-test-secret-test-secret", auth.SessionDuration)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(dir, tokens, logger)
		ctx = context.Background()
	})

	Describe("Login", func() {
		BeforeEach(func() {
			dir.add(&directory.Account{
				ID:           "mgr-1",
				Role:         directory.RoleManager,
				Name:         "Maya",
				Email:        "maya@example.com",
				PasswordHash: hashFor("secret1"),
			})
		})

		It("should issue a session assertion with the role redirect", func() {
			// When
			result, err := service.Login(ctx, auth.LoginDTO{
				Role: "manager", Email: "maya@example.com", Password: "secret1",
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Token).ToNot(BeEmpty())
			Expect(result.RedirectTo).To(Equal("/manager"))
			Expect(result.User.ID).To(Equal("mgr-1"))
			Expect(result.User.Role).To(Equal(directory.RoleManager))
			Expect(result.ExpiresAt).To(BeTemporally("~", time.Now().Add(auth.SessionDuration), 5*time.Second))
		})

		It("should issue an assertion that validates back to the same principal", func() {
			// Given
			result, err := service.Login(ctx, auth.LoginDTO{
				Role: "manager", Email: "maya@example.com", Password: "secret1",
			})
			Expect(err).ToNot(HaveOccurred())

			// When
			claims, err := tokens.Validate(result.Token)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.PrincipalID).To(Equal("mgr-1"))
			Expect(claims.Role).To(Equal("manager"))
		})

		It("should answer unauthorized for an unknown email", func() {
			// When
			_, err := service.Login(ctx, auth.LoginDTO{
				Role: "manager", Email: "nobody@example.com", Password: "secret1",
			})

			// Then
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("should answer unauthorized for a wrong password, indistinguishable from unknown email", func() {
			// When
			_, unknownErr := service.Login(ctx, auth.LoginDTO{
				Role: "manager", Email: "nobody@example.com", Password: "secret1",
			})
			_, wrongErr := service.Login(ctx, auth.LoginDTO{
				Role: "manager", Email: "maya@example.com", Password: "wrong-password",
			})

			// Then
			Expect(unknownErr).To(MatchError(auth.ErrInvalidCredentials))
			Expect(wrongErr).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("should not find the account through another role's login", func() {
			// When
			_, err := service.Login(ctx, auth.LoginDTO{
				Role: "employee", Email: "maya@example.com", Password: "secret1",
			})

			// Then
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("should accept role names in any letter case", func() {
			// When
			result, err := service.Login(ctx, auth.LoginDTO{
				Role: "MANAGER", Email: "maya@example.com", Password: "secret1",
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.User.Role).To(Equal(directory.RoleManager))
		})

		It("should reject a malformed role before touching the directory", func() {
			// When
			_, err := service.Login(ctx, auth.LoginDTO{
				Role: "superuser", Email: "maya@example.com", Password: "secret1",
			})

			// Then
			Expect(err).To(MatchError(directory.ErrInvalidRole))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("should reject a request with missing fields", func() {
			// When
			_, err := service.Login(ctx, auth.LoginDTO{Role: "manager", Email: "maya@example.com"})

			// Then
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingFields))
		})
	})

	Describe("Register", func() {
		It("should create a manager or employee account", func() {
			// When
			acct, err := service.Register(ctx, auth.RegisterDTO{
				Role: "employee", Name: "Evan", Email: "evan@example.com", Password: "secret1",
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(acct.Role).To(Equal(directory.RoleEmployee))
			Expect(dir.created).To(HaveLen(1))
		})

		It("should refuse admin self-registration", func() {
			// When
			_, err := service.Register(ctx, auth.RegisterDTO{
				Role: "admin", Name: "Ada", Email: "ada@example.com", Password: "secret1",
			})

			// Then
			Expect(err).To(MatchError(directory.ErrInvalidRole))
			Expect(dir.created).To(BeEmpty())
		})

		It("should pass the manager reference through", func() {
			// Given
			managerID := "mgr-1"

			// When
			_, err := service.Register(ctx, auth.RegisterDTO{
				Role: "employee", Name: "Evan", Email: "evan@example.com", Password: "secret1", ManagerID: &managerID,
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(dir.created[0].ManagerID).To(Equal(&managerID))
		})
	})

	Describe("SessionFor", func() {
		var acct *directory.Account

		BeforeEach(func() {
			acct = &directory.Account{
				ID:           "emp-1",
				Role:         directory.RoleEmployee,
				Name:         "Evan",
				Email:        "evan@example.com",
				PasswordHash: hashFor("secret1"),
			}
			dir.add(acct)
		})

		It("should resolve a valid assertion to a session", func() {
			// Given
			token, _, err := tokens.Generate(acct.ID, acct.Role)
			Expect(err).ToNot(HaveOccurred())

			// When
			session, err := service.SessionFor(ctx, token)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(session.PrincipalID).To(Equal("emp-1"))
			Expect(session.Role).To(Equal(directory.RoleEmployee))
			Expect(session.CanReview()).To(BeFalse())
		})

		It("should reject an expired assertion", func() {
			// Given
			expired := auth.NewJWTTokenGenerator("test-secret-test-secret-test-secret", time.Nanosecond)
			token, _, err := expired.Generate(acct.ID, acct.Role)
			Expect(err).ToNot(HaveOccurred())
			time.Sleep(10 * time.Millisecond)

			// When
			_, err = service.SessionFor(ctx, token)

			// Then
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("should reject an assertion signed with a different secret", func() {
			// Given
			forged := auth.NewJWTTokenGenerator("other-secret-other-secret-other-sec", auth.SessionDuration)
			token, _, err := forged.Generate(acct.ID, acct.Role)
			Expect(err).ToNot(HaveOccurred())

			// When
			_, err = service.SessionFor(ctx, token)

			// Then
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("should reject an assertion whose principal no longer resolves", func() {
			// Given: the id a role move retired
			token, _, err := tokens.Generate("moved-away-id", directory.RoleEmployee)
			Expect(err).ToNot(HaveOccurred())

			// When
			_, err = service.SessionFor(ctx, token)

			// Then
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("should reject an assertion whose role no longer matches the principal", func() {
			// Given
			token, _, err := tokens.Generate(acct.ID, directory.RoleManager)
			Expect(err).ToNot(HaveOccurred())

			// When
			_, err = service.SessionFor(ctx, token)

			// Then
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})
})
