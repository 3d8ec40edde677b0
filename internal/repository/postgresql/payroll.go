package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollRecordColumns = `
	id, employee_id, employee_name, cycle_type, period_start, period_end,
	completed_days, days_overridden, substitute_days, extra_days, effective_days,
	nominal_days, minimum_days, days_to_pay,
	monthly_salary, period_salary, daily_rate, base_pay,
	tips, bonuses, discounts, advances, net_pay,
	paid, paid_at, payment_method, notes, paid_by, created_at, updated_at`

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var (
		r     payroll.PayrollRecord
		cycle string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.EmployeeName, &cycle, &r.PeriodStart, &r.PeriodEnd,
		&r.CompletedDays, &r.DaysOverridden, &r.SubstituteDays, &r.ExtraDays, &r.EffectiveDays,
		&r.NominalDays, &r.MinimumDays, &r.DaysToPay,
		&r.MonthlySalary, &r.PeriodSalary, &r.DailyRate, &r.BasePay,
		&r.Tips, &r.Bonuses, &r.Discounts, &r.Advances, &r.NetPay,
		&r.Paid, &r.PaidAt, &r.PaymentMethod, &r.Notes, &r.PaidBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	r.CycleType = payroll.CycleType(cycle)
	return r, nil
}

// ========== PAYROLL RECORDS ==========

func (r *payrollRepository) Insert(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	if record.ID == "" {
		record.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO payroll_records (
			id, employee_id, employee_name, cycle_type, period_start, period_end,
			completed_days, days_overridden, substitute_days, extra_days, effective_days,
			nominal_days, minimum_days, days_to_pay,
			monthly_salary, period_salary, daily_rate, base_pay,
			tips, bonuses, discounts, advances, net_pay
		) VALUES (
			$1, $2, $3, $4, $5::date, $6::date,
			$7, $8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23
		)
		RETURNING ` + payrollRecordColumns

	c := record.Computation
	created, err := scanPayrollRecord(q.QueryRow(ctx, query,
		record.ID, c.EmployeeID, c.EmployeeName, string(c.CycleType),
		c.PeriodStart.Format("2006-01-02"), c.PeriodEnd.Format("2006-01-02"),
		c.CompletedDays, c.DaysOverridden, c.SubstituteDays, c.ExtraDays, c.EffectiveDays,
		c.NominalDays, c.MinimumDays, c.DaysToPay,
		c.MonthlySalary, c.PeriodSalary, c.DailyRate, c.BasePay,
		c.Tips, c.Bonuses, c.Discounts, c.Advances, c.NetPay,
	))
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	return r.getByID(ctx, id, false)
}

func (r *payrollRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	return r.getByID(ctx, id, true)
}

func (r *payrollRepository) getByID(ctx context.Context, id string, forUpdate bool) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollRecordColumns + ` FROM payroll_records WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	record, err := scanPayrollRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return record, nil
}

// MarkPaid flips the record to paid. The paid = FALSE guard makes the update a
// compare-and-swap even without the row lock.
func (r *payrollRepository) MarkPaid(ctx context.Context, params payroll.MarkPaidParams) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET paid = TRUE, paid_at = $2, payment_method = $3, notes = $4, paid_by = $5, updated_at = NOW()
		WHERE id = $1 AND paid = FALSE
	`

	tag, err := q.Exec(ctx, query, params.ID, params.PaidAt, params.PaymentMethod, params.Notes, params.PaidBy)
	if err != nil {
		return fmt.Errorf("failed to mark payroll record paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRecordAlreadyPaid
	}

	return nil
}

func (r *payrollRepository) ListUnpaid(ctx context.Context, filter payroll.UnpaidFilter) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"paid = FALSE"}
	var args []interface{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.CycleType != nil {
		conditions = append(conditions, fmt.Sprintf("cycle_type = $%d", argIdx))
		args = append(args, string(*filter.CycleType))
		argIdx++
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_records WHERE %s ORDER BY period_start, employee_name, id`,
		payrollRecordColumns, strings.Join(conditions, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		record, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ========== PAYMENTS ==========

type paymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) payroll.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, payroll_record_id, employee_id, employee_name, paid_at,
	period_start, period_end, period, days_to_pay,
	base_pay, tips, bonuses, discounts, advances, total_paid,
	payment_method, notes, paid_by, consumed_adjustments, created_at`

func scanPayment(row pgx.Row) (payroll.PaymentRecord, error) {
	var p payroll.PaymentRecord
	err := row.Scan(
		&p.ID, &p.PayrollRecordID, &p.EmployeeID, &p.EmployeeName, &p.PaidAt,
		&p.PeriodStart, &p.PeriodEnd, &p.Period, &p.DaysToPay,
		&p.BasePay, &p.Tips, &p.Bonuses, &p.Discounts, &p.Advances, &p.TotalPaid,
		&p.PaymentMethod, &p.Notes, &p.PaidBy, &p.ConsumedAdjustments, &p.CreatedAt,
	)
	return p, err
}

func (r *paymentRepository) Append(ctx context.Context, p payroll.PaymentRecord) (payroll.PaymentRecord, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO payments (
			id, payroll_record_id, employee_id, employee_name, paid_at,
			period_start, period_end, period, days_to_pay,
			base_pay, tips, bonuses, discounts, advances, total_paid,
			payment_method, notes, paid_by, consumed_adjustments
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::date, $7::date, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19
		)
		RETURNING ` + paymentColumns

	created, err := scanPayment(q.QueryRow(ctx, query,
		p.ID, p.PayrollRecordID, p.EmployeeID, p.EmployeeName, p.PaidAt,
		p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"), p.Period, p.DaysToPay,
		p.BasePay, p.Tips, p.Bonuses, p.Discounts, p.Advances, p.TotalPaid,
		p.PaymentMethod, p.Notes, p.PaidBy, p.ConsumedAdjustments,
	))
	if err != nil {
		return payroll.PaymentRecord{}, fmt.Errorf("failed to append payment: %w", err)
	}

	return created, nil
}

func (r *paymentRepository) List(ctx context.Context, filter payroll.PaymentFilter) ([]payroll.PaymentRecord, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("paid_at >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("paid_at < $%d", argIdx))
		args = append(args, filter.To.Add(24*time.Hour))
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY paid_at DESC, id DESC`, paymentColumns, where)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []payroll.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
