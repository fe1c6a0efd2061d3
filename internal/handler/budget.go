package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/service"
)

// BudgetManager is the budget behaviour the handlers depend on.
type BudgetManager interface {
	Create(ctx context.Context, userID string, req model.CreateBudgetRequest) (model.BudgetResponse, error)
	List(ctx context.Context, userID string) ([]model.BudgetResponse, error)
	UpdateSpending(ctx context.Context, userID, itemID string, req model.UpdateSpendingRequest) (model.BudgetItemResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

// BudgetHandler handles HTTP requests for monthly budgets.
type BudgetHandler struct {
	service BudgetManager
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(svc BudgetManager) *BudgetHandler {
	return &BudgetHandler{service: svc}
}

// HandleList handles GET /api/budgets requests.
func (h *BudgetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	budgets, err := h.service.List(r.Context(), cur.UserID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, budgets)
}

// HandleCreate handles POST /api/budgets requests.
func (h *BudgetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req model.CreateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), cur.UserID, req)
	if err != nil {
		writeBudgetError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleUpdateSpending handles PUT /api/budgets/items/{id}/spending requests.
func (h *BudgetHandler) HandleUpdateSpending(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req model.UpdateSpendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateSpending(r.Context(), cur.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeBudgetError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/budgets/{id} requests.
func (h *BudgetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), cur.UserID, chi.URLParam(r, "id")); err != nil {
		writeBudgetError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeBudgetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrBudgetNameRequired),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, service.ErrInvalidYear),
		errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrItemNameRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrBudgetExists):
		writeJSON(w, http.StatusConflict, errorResponse("Budget for this month already exists"))
	case errors.Is(err, service.ErrBudgetNotFound), errors.Is(err, service.ErrBudgetItemNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		writeInternal(w, r, err)
	}
}
