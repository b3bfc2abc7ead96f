package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/directory"
)

var _ = Describe("AuthHandler middleware", func() {
	var (
		handler *auth.Handler
		dir     *mockDirectory
		tokens  *auth.JWTTokenGenerator
	)

	BeforeEach(func() {
		dir = newMockDirectory()
		tokens = auth.NewJWTTokenGenerator("test-secret-test-secret-test-secret", auth.SessionDuration)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = auth.NewHandler(auth.NewService(dir, tokens, logger))
	})

	Describe("Middleware", func() {
		BeforeEach(func() {
			dir.add(&directory.Account{
				ID:    "emp-1",
				Role:  directory.RoleEmployee,
				Name:  "Evan",
				Email: "evan@example.com",
			})
		})

		It("should attach the session and principal id to the request context", func() {
			// Given
			token, _, err := tokens.Generate("emp-1", directory.RoleEmployee)
			Expect(err).ToNot(HaveOccurred())

			var seenSession *auth.Session
			var seenPrincipal string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenSession, _ = auth.SessionFromContext(r.Context())
				seenPrincipal = internal.PrincipalIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			// When
			handler.Middleware(next).ServeHTTP(rec, req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(seenSession).ToNot(BeNil())
			Expect(seenSession.PrincipalID).To(Equal("emp-1"))
			Expect(seenPrincipal).To(Equal("emp-1"))
		})

		It("should reject a request without a bearer token", func() {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			rec := httptest.NewRecorder()
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Fail("next handler should not run")
			})

			// When
			handler.Middleware(next).ServeHTTP(rec, req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireRole", func() {
		sessionRequest := func(role directory.Role) *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			ctx := auth.ContextWithSession(context.Background(), &auth.Session{
				PrincipalID: "p-1",
				Role:        role,
			})
			return req.WithContext(ctx)
		}

		It("should pass a matching role through", func() {
			// Given
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			rec := httptest.NewRecorder()

			// When
			auth.RequireRole(directory.RoleAdmin)(next).ServeHTTP(rec, sessionRequest(directory.RoleAdmin))

			// Then
			Expect(called).To(BeTrue())
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should answer an insufficient role with the error taxonomy", func() {
			// Given
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Fail("next handler should not run")
			})
			rec := httptest.NewRecorder()

			// When
			auth.RequireRole(directory.RoleAdmin)(next).ServeHTTP(rec, sessionRequest(directory.RoleEmployee))

			// Then
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var body struct {
				Error struct {
					Type    string `json:"type"`
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Error.Code).To(Equal(string(internal.ErrCodeInsufficientRole)))
			Expect(body.Error.Type).To(Equal(string(internal.ErrorTypeForbidden)))
		})

		It("should answer a missing session as unauthorized", func() {
			// Given
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Fail("next handler should not run")
			})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users", nil)

			// When
			auth.RequireRole(directory.RoleAdmin)(next).ServeHTTP(rec, req)

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
