package expense

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/transport"
	"github.com/expenseflow/expenseflow/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, session *auth.Session, dto CreateExpenseDTO) (*Expense, error)
	GetByID(ctx context.Context, session *auth.Session, id string) (*Expense, error)
	ListMine(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error)
	ListAll(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error)
	ListPending(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error)
	Approve(ctx context.Context, session *auth.Session, id, comment string) (*Expense, error)
	Reject(ctx context.Context, session *auth.Session, id, comment string) (*Expense, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := h.Service.Submit(r.Context(), session, dto)
	if err != nil {
		h.Logger.Error("Submit: service error", "error", err, "principal_id", session.PrincipalID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, exp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	exp, err := h.Service.GetByID(r.Context(), session, id)
	if err != nil {
		h.Logger.Error("Get: service error", "error", err, "expense_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	expenses, err := h.Service.ListMine(r.Context(), session, limit, offset)
	if err != nil {
		h.Logger.Error("ListMine: service error", "error", err, "principal_id", session.PrincipalID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	expenses, err := h.Service.ListAll(r.Context(), session, limit, offset)
	if err != nil {
		h.Logger.Error("ListAll: service error", "error", err, "principal_id", session.PrincipalID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	expenses, err := h.Service.ListPending(r.Context(), session, limit, offset)
	if err != nil {
		h.Logger.Error("ListPending: service error", "error", err, "principal_id", session.PrincipalID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.reviewHandler(w, r, h.Service.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.reviewHandler(w, r, h.Service.Reject)
}

func (h *Handler) reviewHandler(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, session *auth.Session, id, comment string) (*Expense, error)) {

	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var dto ReviewDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	exp, err := action(r.Context(), session, id, dto.Comment)
	if err != nil {
		h.Logger.Error("review: service error", "error", err, "expense_id", id, "reviewer_id", session.PrincipalID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
