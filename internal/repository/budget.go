package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/daybook/daybook-go/internal/model"
)

var (
	ErrBudgetNotFound     = errors.New("budget not found")
	ErrBudgetItemNotFound = errors.New("budget item not found")
	ErrDuplicateBudget    = errors.New("budget for this month already exists")
)

// BudgetRepository handles monthly budgets and their items.
type BudgetRepository struct {
	db *sql.DB
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Create inserts a budget together with its items in one transaction.
// Missing IDs are generated.
func (r *BudgetRepository) Create(ctx context.Context, budget *model.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, name, month, year, total_budget) VALUES (?, ?, ?, ?, ?, ?)`,
		budget.ID, budget.UserID, budget.Name, budget.Month, budget.Year, budget.TotalBudget,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateBudget
		}
		return err
	}

	for i := range budget.Items {
		item := &budget.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.BudgetID = budget.ID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budget_items (id, budget_id, name, category, budget_amount, spent_amount) VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.BudgetID, item.Name, item.Category, item.BudgetAmount, item.SpentAmount,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByUser returns the budgets of a user, most recent month first, each
// with its items in insertion order.
func (r *BudgetRepository) ListByUser(ctx context.Context, userID string) ([]model.Budget, error) {
	query := `SELECT b.id, b.user_id, b.name, b.month, b.year, b.total_budget, b.created_at, b.updated_at,
			i.id, i.name, i.category, i.budget_amount, i.spent_amount, i.created_at, i.updated_at
		FROM budgets b
		LEFT JOIN budget_items i ON i.budget_id = b.id
		WHERE b.user_id = ?
		ORDER BY b.year DESC, b.month DESC, i.created_at ASC, i.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		var (
			b         model.Budget
			itemID    sql.NullString
			itemName  sql.NullString
			category  sql.NullString
			amount    sql.NullFloat64
			spent     sql.NullFloat64
			itemCrAt  sql.NullTime
			itemUpdAt sql.NullTime
		)
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Name, &b.Month, &b.Year, &b.TotalBudget, &b.CreatedAt, &b.UpdatedAt,
			&itemID, &itemName, &category, &amount, &spent, &itemCrAt, &itemUpdAt,
		); err != nil {
			return nil, err
		}

		if n := len(budgets); n == 0 || budgets[n-1].ID != b.ID {
			budgets = append(budgets, b)
		}
		if itemID.Valid {
			last := &budgets[len(budgets)-1]
			last.Items = append(last.Items, model.BudgetItem{
				ID:           itemID.String,
				BudgetID:     b.ID,
				Name:         itemName.String,
				Category:     category.String,
				BudgetAmount: amount.Float64,
				SpentAmount:  spent.Float64,
				CreatedAt:    itemCrAt.Time,
				UpdatedAt:    itemUpdAt.Time,
			})
		}
	}

	return budgets, rows.Err()
}

// GetItem retrieves a budget item whose budget is owned by userID.
func (r *BudgetRepository) GetItem(ctx context.Context, userID, itemID string) (*model.BudgetItem, error) {
	query := `SELECT i.id, i.budget_id, i.name, i.category, i.budget_amount, i.spent_amount, i.created_at, i.updated_at
		FROM budget_items i
		JOIN budgets b ON b.id = i.budget_id
		WHERE i.id = ? AND b.user_id = ?`

	var item model.BudgetItem
	err := r.db.QueryRowContext(ctx, query, itemID, userID).Scan(
		&item.ID, &item.BudgetID, &item.Name, &item.Category,
		&item.BudgetAmount, &item.SpentAmount, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBudgetItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItemSpending sets the spent amount of a budget item owned by userID.
func (r *BudgetRepository) UpdateItemSpending(ctx context.Context, userID, itemID string, spent float64) error {
	query := `UPDATE budget_items i
		JOIN budgets b ON b.id = i.budget_id
		SET i.spent_amount = ?
		WHERE i.id = ? AND b.user_id = ?`
	_, err := r.db.ExecContext(ctx, query, spent, itemID, userID)
	return err
}

// Delete removes a budget owned by userID. Its items are removed by the
// foreign key cascade.
func (r *BudgetRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBudgetNotFound
	}

	return nil
}
