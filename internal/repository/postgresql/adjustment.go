package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type adjustmentRepositoryImpl struct {
	db *database.DB
}

func NewAdjustmentRepository(db *database.DB) adjustment.AdjustmentRepository {
	return &adjustmentRepositoryImpl{db: db}
}

// CreateBatch inserts every adjustment with one statement.
func (r *adjustmentRepositoryImpl) CreateBatch(ctx context.Context, adjustments []*adjustment.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 10
	valueStrings := make([]string, 0, len(adjustments))
	valueArgs := make([]interface{}, 0, len(adjustments)*cols)

	for i, a := range adjustments {
		if a.ID == "" {
			a.ID = uuid.Must(uuid.NewV7()).String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}

		var advanceKind *string
		if a.AdvanceKind != nil {
			k := string(*a.AdvanceKind)
			advanceKind = &k
		}

		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d::date, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		valueArgs = append(valueArgs,
			a.ID,
			a.EmployeeID,
			a.Date.Format("2006-01-02"),
			string(a.Category),
			string(a.Scope),
			advanceKind,
			a.Amount,
			a.Description,
			a.Split,
			a.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO adjustments (id, employee_id, adjustment_date, category, scope, advance_kind, amount, description, split, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create adjustments: %w", err)
	}

	return nil
}

// SumPending implements adjustment.AdjustmentRepository.
func (r *adjustmentRepositoryImpl) SumPending(ctx context.Context, employeeID string, category adjustment.Category) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM adjustments
		WHERE employee_id = $1 AND category = $2 AND consumed = FALSE
	`

	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, employeeID, string(category)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending %s adjustments: %w", category, err)
	}

	return total, nil
}

// SumPendingByCategory implements adjustment.AdjustmentRepository.
func (r *adjustmentRepositoryImpl) SumPendingByCategory(ctx context.Context, employeeID string) (adjustment.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM adjustments
		WHERE employee_id = $1 AND consumed = FALSE
		GROUP BY category
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return adjustment.Totals{}, fmt.Errorf("failed to sum pending adjustments: %w", err)
	}
	defer rows.Close()

	totals := adjustment.Totals{
		Tips:      decimal.Zero,
		Bonuses:   decimal.Zero,
		Discounts: decimal.Zero,
		Advances:  decimal.Zero,
	}
	for rows.Next() {
		var (
			category string
			sum      decimal.Decimal
		)
		if err := rows.Scan(&category, &sum); err != nil {
			return adjustment.Totals{}, fmt.Errorf("failed to scan pending sum: %w", err)
		}
		totals = totals.Add(adjustment.Category(category), sum)
	}

	if err = rows.Err(); err != nil {
		return adjustment.Totals{}, err
	}

	return totals, nil
}

// MarkConsumed implements adjustment.AdjustmentRepository. The consumed = FALSE
// predicate is re-checked after a row lock wait, so rows taken by a concurrent
// settlement are not returned here.
func (r *adjustmentRepositoryImpl) MarkConsumed(ctx context.Context, employeeID, recordID string, at time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE adjustments
		SET consumed = TRUE, consumed_at = $3, payroll_record_id = $2
		WHERE employee_id = $1 AND consumed = FALSE
		RETURNING id
	`

	rows, err := q.Query(ctx, query, employeeID, recordID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to mark adjustments consumed: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan consumed adjustment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to mark adjustments consumed: %w", err)
	}

	return ids, nil
}

// ListPending implements adjustment.AdjustmentRepository.
func (r *adjustmentRepositoryImpl) ListPending(ctx context.Context, filter adjustment.PendingFilter) ([]adjustment.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	conditions = append(conditions, "a.consumed = FALSE")

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", argIdx))
		args = append(args, string(*filter.Category))
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.employee_id, a.adjustment_date, a.category, a.scope, a.advance_kind,
			a.amount, a.description, a.split, a.consumed, a.consumed_at, a.payroll_record_id,
			a.created_at, e.full_name
		FROM adjustments a
		JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY a.adjustment_date, a.created_at, a.id
	`, strings.Join(conditions, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending adjustments: %w", err)
	}
	defer rows.Close()

	var result []adjustment.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ListHistory implements adjustment.AdjustmentRepository.
func (r *adjustmentRepositoryImpl) ListHistory(ctx context.Context, filter adjustment.HistoryFilter) ([]adjustment.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"TRUE"}
	var args []interface{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", argIdx))
		args = append(args, string(*filter.Category))
		argIdx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = adjustment.DefaultHistoryLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT a.id, a.employee_id, a.adjustment_date, a.category, a.scope, a.advance_kind,
			a.amount, a.description, a.split, a.consumed, a.consumed_at, a.payroll_record_id,
			a.created_at, e.full_name
		FROM adjustments a
		JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY a.adjustment_date DESC, a.created_at DESC, a.id DESC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), argIdx)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustment history: %w", err)
	}
	defer rows.Close()

	var result []adjustment.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func scanAdjustment(row pgx.Row) (adjustment.Adjustment, error) {
	var (
		a           adjustment.Adjustment
		category    string
		scope       string
		advanceKind *string
		name        string
	)
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.Date, &category, &scope, &advanceKind,
		&a.Amount, &a.Description, &a.Split, &a.Consumed, &a.ConsumedAt, &a.PayrollRecordID,
		&a.CreatedAt, &name,
	)
	if err != nil {
		return adjustment.Adjustment{}, fmt.Errorf("failed to scan adjustment: %w", err)
	}

	a.Category = adjustment.Category(category)
	a.Scope = adjustment.Scope(scope)
	if advanceKind != nil {
		k := adjustment.AdvanceKind(*advanceKind)
		a.AdvanceKind = &k
	}
	a.EmployeeName = &name

	return a, nil
}
