package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/repository"
)

var (
	ErrBudgetNameRequired = errors.New("budget name is required")
	ErrInvalidMonth       = errors.New("month must be between 1 and 12")
	ErrInvalidYear        = errors.New("year must be between 1970 and 9999")
	ErrNegativeAmount     = errors.New("amounts must not be negative")
	ErrItemNameRequired   = errors.New("item name is required")
	ErrBudgetExists       = errors.New("budget for this month already exists")
	ErrBudgetNotFound     = errors.New("budget not found")
	ErrBudgetItemNotFound = errors.New("budget item not found")
)

// BudgetStore is the budget persistence used by BudgetService.
type BudgetStore interface {
	Create(ctx context.Context, budget *model.Budget) error
	ListByUser(ctx context.Context, userID string) ([]model.Budget, error)
	GetItem(ctx context.Context, userID, itemID string) (*model.BudgetItem, error)
	UpdateItemSpending(ctx context.Context, userID, itemID string, spent float64) error
	Delete(ctx context.Context, userID, id string) error
}

// BudgetService handles monthly budget business logic. Budget operations are
// not streak activity.
type BudgetService struct {
	budgets BudgetStore
	now     func() time.Time
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(budgets BudgetStore) *BudgetService {
	return &BudgetService{budgets: budgets, now: time.Now}
}

// Create adds a budget with its items for userID. New items start with no
// spending.
func (s *BudgetService) Create(ctx context.Context, userID string, req model.CreateBudgetRequest) (model.BudgetResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.BudgetResponse{}, ErrBudgetNameRequired
	}
	if req.Month < 1 || req.Month > 12 {
		return model.BudgetResponse{}, ErrInvalidMonth
	}
	if req.Year < 1970 || req.Year > 9999 {
		return model.BudgetResponse{}, ErrInvalidYear
	}
	if req.TotalBudget < 0 {
		return model.BudgetResponse{}, ErrNegativeAmount
	}

	budget := &model.Budget{
		UserID:      userID,
		Name:        name,
		Month:       req.Month,
		Year:        req.Year,
		TotalBudget: req.TotalBudget,
	}
	for _, it := range req.Items {
		itemName := strings.TrimSpace(it.Name)
		if itemName == "" {
			return model.BudgetResponse{}, ErrItemNameRequired
		}
		if it.BudgetAmount < 0 {
			return model.BudgetResponse{}, ErrNegativeAmount
		}
		budget.Items = append(budget.Items, model.BudgetItem{
			Name:         itemName,
			Category:     strings.TrimSpace(it.Category),
			BudgetAmount: it.BudgetAmount,
		})
	}

	if err := s.budgets.Create(ctx, budget); err != nil {
		if errors.Is(err, repository.ErrDuplicateBudget) {
			return model.BudgetResponse{}, ErrBudgetExists
		}
		return model.BudgetResponse{}, err
	}
	budget.CreatedAt = s.now().UTC()

	return NewBudgetResponse(*budget), nil
}

// List returns the budgets of userID, most recent month first.
func (s *BudgetService) List(ctx context.Context, userID string) ([]model.BudgetResponse, error) {
	budgets, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, NewBudgetResponse(b))
	}
	return out, nil
}

// UpdateSpending sets the spent amount of an item whose budget belongs to
// userID.
func (s *BudgetService) UpdateSpending(ctx context.Context, userID, itemID string, req model.UpdateSpendingRequest) (model.BudgetItemResponse, error) {
	if req.SpentAmount < 0 {
		return model.BudgetItemResponse{}, ErrNegativeAmount
	}

	item, err := s.budgets.GetItem(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrBudgetItemNotFound) {
			return model.BudgetItemResponse{}, ErrBudgetItemNotFound
		}
		return model.BudgetItemResponse{}, err
	}

	if err := s.budgets.UpdateItemSpending(ctx, userID, itemID, req.SpentAmount); err != nil {
		return model.BudgetItemResponse{}, err
	}
	item.SpentAmount = req.SpentAmount

	return newBudgetItemResponse(*item), nil
}

// Delete removes a budget of userID together with its items.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.budgets.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrBudgetNotFound) {
			return ErrBudgetNotFound
		}
		return err
	}
	return nil
}

// NewBudgetResponse converts a stored budget into its API form.
func NewBudgetResponse(b model.Budget) model.BudgetResponse {
	resp := model.BudgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		Month:       b.Month,
		MonthName:   MonthName(b.Month),
		Year:        b.Year,
		TotalBudget: b.TotalBudget,
		Items:       make([]model.BudgetItemResponse, 0, len(b.Items)),
		CreatedAt:   b.CreatedAt,
	}
	for _, it := range b.Items {
		resp.TotalSpent += it.SpentAmount
		resp.Items = append(resp.Items, newBudgetItemResponse(it))
	}
	resp.Progress = CalculateProgress(resp.TotalSpent, b.TotalBudget)
	return resp
}

func newBudgetItemResponse(it model.BudgetItem) model.BudgetItemResponse {
	return model.BudgetItemResponse{
		ID:           it.ID,
		Name:         it.Name,
		Category:     it.Category,
		BudgetAmount: it.BudgetAmount,
		SpentAmount:  it.SpentAmount,
		Progress:     CalculateProgress(it.SpentAmount, it.BudgetAmount),
	}
}

// CalculateProgress grades spent against budgeted. The reported percentage is
// capped at 100; the status uses the uncapped value: up to 50% is good, up
// to 80% is a warning, anything above is danger. A zero budget counts as 0%.
func CalculateProgress(spent, budgeted float64) model.Progress {
	var pct float64
	if budgeted > 0 {
		pct = spent * 100 / budgeted
	}

	status := model.BudgetDanger
	switch {
	case pct <= 50:
		status = model.BudgetGood
	case pct <= 80:
		status = model.BudgetWarning
	}

	return model.Progress{
		Percentage:   min(pct, 100),
		IsOverBudget: spent > budgeted,
		Remaining:    budgeted - spent,
		Status:       status,
	}
}

// MonthName returns the English name of month 1-12, or "Unknown".
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "Unknown"
	}
	return time.Month(month).String()
}
