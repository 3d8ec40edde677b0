// Package memory holds in-process implementations of the repositories. It backs
// unit tests and local runs without PostgreSQL. Transactions are serialised and
// roll back by restoring a snapshot.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type txKey struct{}

type state struct {
	employees   map[string]employee.Employee
	marks       []attendance.Mark
	adjustments []adjustment.Adjustment
	records     map[string]payroll.PayrollRecord
	payments    []payroll.PaymentRecord
}

func (s state) clone() state {
	c := state{
		employees:   make(map[string]employee.Employee, len(s.employees)),
		marks:       append([]attendance.Mark(nil), s.marks...),
		adjustments: append([]adjustment.Adjustment(nil), s.adjustments...),
		records:     make(map[string]payroll.PayrollRecord, len(s.records)),
		payments:    append([]payroll.PaymentRecord(nil), s.payments...),
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state

	// FailPaymentAppend, when set, is returned by the next payment Append.
	FailPaymentAppend error
}

func NewStore() *Store {
	return &Store{data: state{
		employees: map[string]employee.Employee{},
		records:   map[string]payroll.PayrollRecord{},
	}}
}

// ========== TRANSACTOR ==========

func (s *Store) Transactor() database.Transactor { return (*transactor)(s) }

type transactor Store

func (t *transactor) WithinTransaction(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s := (*Store)(t)
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// ========== SEEDING & INSPECTION ==========

func (s *Store) AddEmployee(e employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.Status == "" {
		e.Status = employee.EmploymentStatusActive
	}
	s.data.employees[e.ID] = e
	return e
}

func (s *Store) AddMark(m attendance.Mark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.Must(uuid.NewV7()).String()
	}
	s.data.marks = append(s.data.marks, m)
}

func (s *Store) Adjustments() []adjustment.Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]adjustment.Adjustment(nil), s.data.adjustments...)
}

func (s *Store) Payments() []payroll.PaymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payroll.PaymentRecord(nil), s.data.payments...)
}

func (s *Store) Record(id string) (payroll.PayrollRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.records[id]
	return r, ok
}

// ========== EMPLOYEES ==========

func (s *Store) Employees() employee.EmployeeRepository { return (*employeeRepo)(s) }

type employeeRepo Store

func (r *employeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepo) ListActive(_ context.Context) ([]employee.Employee, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []employee.Employee
	for _, e := range s.data.employees {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ========== ATTENDANCE ==========

func (s *Store) Attendance() attendance.AttendanceRepository { return (*attendanceRepo)(s) }

type attendanceRepo Store

func (r *attendanceRepo) CountDistinctCheckinDates(_ context.Context, employeeID string, start, end time.Time) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := dateOnly(start), dateOnly(end)
	days := map[string]struct{}{}
	for _, m := range s.data.marks {
		if m.EmployeeID != employeeID || m.Kind != attendance.MarkKindCheckIn {
			continue
		}
		d := dateOnly(m.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		days[d.Format("2006-01-02")] = struct{}{}
	}
	return len(days), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ========== ADJUSTMENTS ==========

func (s *Store) AdjustmentRepository() adjustment.AdjustmentRepository { return (*adjustmentRepo)(s) }

type adjustmentRepo Store

func (r *adjustmentRepo) CreateBatch(_ context.Context, adjustments []*adjustment.Adjustment) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range adjustments {
		if _, ok := s.data.employees[a.EmployeeID]; !ok {
			return errors.New("adjustments_employee_id_fkey violation")
		}
	}
	for _, a := range adjustments {
		if a.ID == "" {
			a.ID = uuid.Must(uuid.NewV7()).String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		s.data.adjustments = append(s.data.adjustments, *a)
	}
	return nil
}

func (r *adjustmentRepo) SumPending(_ context.Context, employeeID string, category adjustment.Category) (decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, a := range s.data.adjustments {
		if a.EmployeeID == employeeID && a.Category == category && !a.Consumed {
			total = total.Add(a.Amount)
		}
	}
	return total, nil
}

func (r *adjustmentRepo) SumPendingByCategory(_ context.Context, employeeID string) (adjustment.Totals, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := adjustment.Totals{Tips: decimal.Zero, Bonuses: decimal.Zero, Discounts: decimal.Zero, Advances: decimal.Zero}
	for _, a := range s.data.adjustments {
		if a.EmployeeID == employeeID && !a.Consumed {
			totals = totals.Add(a.Category, a.Amount)
		}
	}
	return totals, nil
}

func (r *adjustmentRepo) MarkConsumed(_ context.Context, employeeID, recordID string, at time.Time) ([]string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for i := range s.data.adjustments {
		a := &s.data.adjustments[i]
		if a.EmployeeID != employeeID || a.Consumed {
			continue
		}
		consumedAt := at
		rid := recordID
		a.Consumed = true
		a.ConsumedAt = &consumedAt
		a.PayrollRecordID = &rid
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *adjustmentRepo) ListPending(_ context.Context, filter adjustment.PendingFilter) ([]adjustment.Adjustment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []adjustment.Adjustment
	for _, a := range s.data.adjustments {
		if a.Consumed {
			continue
		}
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Category != nil && a.Category != *filter.Category {
			continue
		}
		if e, ok := s.data.employees[a.EmployeeID]; ok {
			name := e.FullName
			a.EmployeeName = &name
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *adjustmentRepo) ListHistory(_ context.Context, filter adjustment.HistoryFilter) ([]adjustment.Adjustment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []adjustment.Adjustment
	for _, a := range s.data.adjustments {
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Category != nil && a.Category != *filter.Category {
			continue
		}
		if e, ok := s.data.employees[a.EmployeeID]; ok {
			name := e.FullName
			a.EmployeeName = &name
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = adjustment.DefaultHistoryLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ========== PAYROLL RECORDS ==========

func (s *Store) PayrollRepository() payroll.PayrollRepository { return (*payrollRepo)(s) }

type payrollRepo Store

func (r *payrollRepo) Insert(_ context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.employees[record.EmployeeID]; !ok {
		return payroll.PayrollRecord{}, errors.New("payroll_records_employee_id_fkey violation")
	}
	if record.ID == "" {
		record.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now()
	record.Paid = false
	record.CreatedAt, record.UpdatedAt = now, now
	s.data.records[record.ID] = record
	return record, nil
}

func (r *payrollRepo) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return record, nil
}

// GetByIDForUpdate relies on the transactor serialising transactions.
func (r *payrollRepo) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *payrollRepo) MarkPaid(_ context.Context, params payroll.MarkPaidParams) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data.records[params.ID]
	if !ok || record.Paid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}
	paidAt := params.PaidAt
	method := params.PaymentMethod
	record.Paid = true
	record.PaidAt = &paidAt
	record.PaymentMethod = &method
	record.Notes = params.Notes
	record.PaidBy = params.PaidBy
	record.UpdatedAt = time.Now()
	s.data.records[params.ID] = record
	return nil
}

func (r *payrollRepo) ListUnpaid(_ context.Context, filter payroll.UnpaidFilter) ([]payroll.PayrollRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payroll.PayrollRecord
	for _, record := range s.data.records {
		if record.Paid {
			continue
		}
		if filter.EmployeeID != nil && record.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.CycleType != nil && record.CycleType != *filter.CycleType {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ========== PAYMENTS ==========

func (s *Store) PaymentRepository() payroll.PaymentRepository { return (*paymentRepo)(s) }

type paymentRepo Store

func (r *paymentRepo) Append(_ context.Context, p payroll.PaymentRecord) (payroll.PaymentRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailPaymentAppend; err != nil {
		s.FailPaymentAppend = nil
		return payroll.PaymentRecord{}, err
	}
	for _, existing := range s.data.payments {
		if existing.PayrollRecordID == p.PayrollRecordID {
			return payroll.PaymentRecord{}, errors.New("payments_payroll_record_id_key violation")
		}
	}
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	p.CreatedAt = time.Now()
	s.data.payments = append(s.data.payments, p)
	return p, nil
}

func (r *paymentRepo) List(_ context.Context, filter payroll.PaymentFilter) ([]payroll.PaymentRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payroll.PaymentRecord
	for _, p := range s.data.payments {
		if filter.EmployeeID != nil && p.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.From != nil && p.PaidAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !p.PaidAt.Before(filter.To.Add(24*time.Hour)) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}
