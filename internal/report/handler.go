package report

import (
	"context"
	"net/http"
	"strconv"

	"github.com/expenseflow/expenseflow/internal/transport"
	"github.com/expenseflow/expenseflow/pkg/logger"
)

type ServiceAPI interface {
	Summary(ctx context.Context) (*Summary, error)
	ByCategory(ctx context.Context) ([]CategoryTotal, error)
	ByDate(ctx context.Context) ([]DateTotal, error)
	TopPayers(ctx context.Context, n int) ([]PayerTotal, error)
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

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.Logger.Error("Summary: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.ByCategory(r.Context())
	if err != nil {
		h.Logger.Error("Categories: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": totals})
}

func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.ByDate(r.Context())
	if err != nil {
		h.Logger.Error("Dates: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"dates": totals})
}

func (h *Handler) TopPayers(w http.ResponseWriter, r *http.Request) {
	n := 5
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 && parsed <= 50 {
			n = parsed
		}
	}

	totals, err := h.Service.TopPayers(r.Context(), n)
	if err != nil {
		h.Logger.Error("TopPayers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"payers": totals})
}
