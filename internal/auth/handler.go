package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/directory"
	"github.com/expenseflow/expenseflow/internal/transport"
	"github.com/expenseflow/expenseflow/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Register(ctx context.Context, dto RegisterDTO) (*directory.Account, error)
	SessionFor(ctx context.Context, token string) (*Session, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("login rejected", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("registration rejected", "error", err, "role", dto.Role)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": string(acct.Role) + " registered",
		"user": SessionAccount{
			ID:    acct.ID,
			Name:  acct.Name,
			Email: acct.Email,
			Role:  acct.Role,
		},
	})
}

// Me returns the session's own account, resolved fresh from the
// directory on this request by the middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, SessionAccount{
		ID:    session.PrincipalID,
		Name:  session.Name,
		Email: session.Email,
		Role:  session.Role,
	})
}

// Middleware authenticates the bearer token and attaches the resolved
// session to the request context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		session, err := h.Service.SessionFor(r.Context(), token)
		if err != nil {
			h.Logger.Warn("token rejected", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := ContextWithSession(r.Context(), session)
		ctx = internal.ContextWithPrincipalID(ctx, session.PrincipalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a route group behind one or more roles. It assumes
// Middleware already ran.
func RequireRole(roles ...directory.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok || session == nil {
				writeAppError(w, ErrInvalidToken)
				return
			}

			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.From(r.Context()).Warn("access denied: insufficient role",
				"principal_id", session.PrincipalID,
				"role", session.Role)
			writeAppError(w, ErrInsufficientRole)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
