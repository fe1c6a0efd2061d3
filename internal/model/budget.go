package model

import "time"

// Budget represents a monthly budget in the database.
type Budget struct {
	ID          string
	UserID      string
	Name        string
	Month       int
	Year        int
	TotalBudget float64
	Items       []BudgetItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BudgetItem is a single spending line of a budget.
type BudgetItem struct {
	ID           string
	BudgetID     string
	Name         string
	Category     string
	BudgetAmount float64
	SpentAmount  float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateBudgetRequest is the body of a budget create.
type CreateBudgetRequest struct {
	Name        string                    `json:"name"`
	Month       int                       `json:"month"`
	Year        int                       `json:"year"`
	TotalBudget float64                   `json:"totalBudget"`
	Items       []CreateBudgetItemRequest `json:"items"`
}

// CreateBudgetItemRequest is one item of a budget create.
type CreateBudgetItemRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	BudgetAmount float64 `json:"budgetAmount"`
}

// UpdateSpendingRequest sets the spent amount of a budget item.
type UpdateSpendingRequest struct {
	SpentAmount float64 `json:"spentAmount"`
}

// BudgetStatus grades how much of a budget line has been used.
type BudgetStatus string

const (
	BudgetGood    BudgetStatus = "good"
	BudgetWarning BudgetStatus = "warning"
	BudgetDanger  BudgetStatus = "danger"
)

// Progress describes spending against a budgeted amount.
type Progress struct {
	Percentage   float64      `json:"percentage"`
	IsOverBudget bool         `json:"isOverBudget"`
	Remaining    float64      `json:"remaining"`
	Status       BudgetStatus `json:"status"`
}

// BudgetItemResponse is the API view of a budget item.
type BudgetItemResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	BudgetAmount float64  `json:"budgetAmount"`
	SpentAmount  float64  `json:"spentAmount"`
	Progress     Progress `json:"progress"`
}

// BudgetResponse is the API view of a budget with its items.
type BudgetResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Month       int                  `json:"month"`
	MonthName   string               `json:"monthName"`
	Year        int                  `json:"year"`
	TotalBudget float64              `json:"totalBudget"`
	TotalSpent  float64              `json:"totalSpent"`
	Progress    Progress             `json:"progress"`
	Items       []BudgetItemResponse `json:"items"`
	CreatedAt   time.Time            `json:"createdAt"`
}
