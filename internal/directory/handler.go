package directory

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/expenseflow/expenseflow/internal/transport"
	"github.com/expenseflow/expenseflow/pkg/logger"
)

type ServiceAPI interface {
	CreateAccount(ctx context.Context, dto CreateAccountDTO) (*Account, error)
	SetRole(ctx context.Context, id string, dto UpdateAccountDTO) (*Account, error)
	DeleteAccount(ctx context.Context, id string) (Role, error)
	ListAccounts(ctx context.Context) ([]AccountView, error)
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

// ListUsers handles GET /users: the combined listing across all roles.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListAccounts(r.Context())
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

// CreateUser handles POST /users: admin creates an account in any role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateAccountDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.Service.CreateAccount(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err, "role", dto.Role)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, AccountView{
		ID:        acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		Role:      acct.Role,
		ManagerID: acct.ManagerID,
	})
}

// UpdateUser handles PUT /users/{id}: in-place update, or a cross-role
// move when the body names a different role. A moved account comes back
// with a new id.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, "missing user id")
		return
	}

	var dto UpdateAccountDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.Service.SetRole(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AccountView{
		ID:        acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		Role:      acct.Role,
		ManagerID: acct.ManagerID,
	})
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, "missing user id")
		return
	}

	role, err := h.Service.DeleteAccount(r.Context(), id)
	if err != nil {
		h.Logger.Error("DeleteUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": string(role) + " deleted"})
}
