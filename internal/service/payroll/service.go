package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Config tunes the payroll service.
type Config struct {
	Location           *time.Location
	ComputeConcurrency int
}

type PayrollServiceImpl struct {
	tx                database.Transactor
	payrollRepo       payroll.PayrollRepository
	paymentRepo       payroll.PaymentRepository
	employeeRepo      employee.EmployeeRepository
	adjustmentRepo    adjustment.AdjustmentRepository
	attendanceService attendance.AttendanceService
	loc               *time.Location
	concurrency       int
	now               func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	paymentRepo payroll.PaymentRepository,
	employeeRepo employee.EmployeeRepository,
	adjustmentRepo adjustment.AdjustmentRepository,
	attendanceService attendance.AttendanceService,
	cfg Config,
) payroll.PayrollService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ComputeConcurrency < 1 {
		cfg.ComputeConcurrency = 1
	}
	return &PayrollServiceImpl{
		tx:                tx,
		payrollRepo:       payrollRepo,
		paymentRepo:       paymentRepo,
		employeeRepo:      employeeRepo,
		adjustmentRepo:    adjustmentRepo,
		attendanceService: attendanceService,
		loc:               cfg.Location,
		concurrency:       cfg.ComputeConcurrency,
		now:               time.Now,
	}
}

// operatorFromContext returns the operator id carried by the access token, if any.
func operatorFromContext(ctx context.Context) *string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil || claims == nil {
		return nil
	}
	operatorID, ok := claims["operator_id"].(string)
	if !ok || operatorID == "" {
		return nil
	}
	return &operatorID
}

// ========== COMPUTE ==========

// Compute implements payroll.PayrollService. Worked days and pending totals
// are read from one snapshot.
func (s *PayrollServiceImpl) Compute(ctx context.Context, req payroll.ComputeRequest) (payroll.ComputationResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ComputationResponse{}, err
	}

	c, err := s.computeInSnapshot(ctx, req)
	if err != nil {
		return payroll.ComputationResponse{}, err
	}
	return payroll.ToComputationResponse(c), nil
}

func (s *PayrollServiceImpl) computeInSnapshot(ctx context.Context, req payroll.ComputeRequest) (payroll.Computation, error) {
	var c payroll.Computation
	err := s.tx.WithinTransaction(ctx, database.Snapshot, func(txCtx context.Context) error {
		var err error
		c, err = s.compute(txCtx, req)
		return err
	})
	return c, err
}

func (s *PayrollServiceImpl) compute(ctx context.Context, req payroll.ComputeRequest) (payroll.Computation, error) {
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.Computation{}, err
	}

	cycle := req.CycleType
	if cycle == "" {
		cycle = emp.PayCycle
	}
	policy, err := payroll.PolicyFor(payroll.CycleType(cycle))
	if err != nil {
		return payroll.Computation{}, err
	}

	start, end, err := s.parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return payroll.Computation{}, err
	}

	var completed decimal.Decimal
	overridden := req.EffectiveDaysOverride != nil
	if overridden {
		completed = *req.EffectiveDaysOverride
	} else {
		days, err := s.attendanceService.WorkedDays(ctx, emp.ID, start, end)
		if err != nil {
			return payroll.Computation{}, err
		}
		completed = decimal.NewFromInt(int64(days))
	}

	pending, err := s.adjustmentRepo.SumPendingByCategory(ctx, emp.ID)
	if err != nil {
		return payroll.Computation{}, fmt.Errorf("failed to read pending adjustments: %w", err)
	}

	return payroll.Calculate(payroll.CalculationInput{
		EmployeeID:     emp.ID,
		EmployeeName:   emp.FullName,
		Policy:         policy,
		PeriodStart:    start,
		PeriodEnd:      end,
		MonthlySalary:  emp.MonthlySalary,
		CompletedDays:  completed,
		DaysOverridden: overridden,
		SubstituteDays: req.SubstituteHalfDays,
		ExtraDays:      req.ExtraHalfDays,
		Pending:        pending,
	}), nil
}

func (s *PayrollServiceImpl) parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := validator.ParseDateIn(startStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, validator.ValidationErrors{{Field: "period_start", Message: "must be in YYYY-MM-DD format"}}
	}
	end, err := validator.ParseDateIn(endStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, validator.ValidationErrors{{Field: "period_end", Message: "must be in YYYY-MM-DD format"}}
	}
	return start, end, nil
}

// ComputeAll implements payroll.PayrollService. Each employee is computed in
// its own snapshot; a failure for one employee is reported alongside the
// others instead of aborting the batch.
func (s *PayrollServiceImpl) ComputeAll(ctx context.Context, req payroll.ComputeAllRequest) (payroll.ComputeAllResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ComputeAllResponse{}, err
	}
	cycle := payroll.CycleType(req.CycleType)
	if _, err := payroll.PolicyFor(cycle); err != nil {
		return payroll.ComputeAllResponse{}, err
	}

	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return payroll.ComputeAllResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	var targets []employee.Employee
	for _, e := range employees {
		if payroll.CycleType(e.PayCycle) == cycle {
			targets = append(targets, e)
		}
	}

	results := make([]*payroll.Computation, len(targets))
	failures := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.computeInSnapshot(gctx, payroll.ComputeRequest{
				EmployeeID:  e.ID,
				CycleType:   req.CycleType,
				PeriodStart: req.PeriodStart,
				PeriodEnd:   req.PeriodEnd,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failures[i] = err
				return nil
			}
			results[i] = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.ComputeAllResponse{}, err
	}

	resp := payroll.ComputeAllResponse{
		Results:  []payroll.ComputationResponse{},
		Failures: []payroll.ComputeFailure{},
		TotalNet: decimal.Zero,
	}
	for i, e := range targets {
		if failures[i] != nil {
			slog.Warn("payroll computation failed", "employee_id", e.ID, "error", failures[i])
			resp.Failures = append(resp.Failures, payroll.ComputeFailure{EmployeeID: e.ID, Error: failures[i].Error()})
			continue
		}
		resp.Results = append(resp.Results, payroll.ToComputationResponse(*results[i]))
		resp.TotalNet = resp.TotalNet.Add(results[i].NetPay)
	}

	return resp, nil
}

// ========== RECORDS ==========

// Save implements payroll.PayrollService. The breakdown is recomputed from the
// request rather than trusted from the client.
func (s *PayrollServiceImpl) Save(ctx context.Context, req payroll.ComputeRequest) (payroll.SaveResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SaveResponse{}, err
	}

	c, err := s.computeInSnapshot(ctx, req)
	if err != nil {
		return payroll.SaveResponse{}, err
	}

	id, err := s.SaveComputation(ctx, c)
	if err != nil {
		return payroll.SaveResponse{}, err
	}

	return payroll.SaveResponse{ID: id, ComputationResponse: payroll.ToComputationResponse(c)}, nil
}

// SaveComputation persists c as a new unpaid record. Adjustments are left
// untouched.
func (s *PayrollServiceImpl) SaveComputation(ctx context.Context, c payroll.Computation) (string, error) {
	record, err := s.payrollRepo.Insert(ctx, payroll.PayrollRecord{Computation: c})
	if err != nil {
		return "", err
	}

	slog.Info("payroll record saved",
		"payroll_record_id", record.ID,
		"employee_id", c.EmployeeID,
		"period", payroll.PeriodLabel(c.PeriodStart, c.PeriodEnd),
		"net_pay", c.NetPay.String(),
	)
	return record.ID, nil
}

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	if !validator.IsValidUUID(id) {
		return payroll.PayrollRecordResponse{}, payroll.ErrPayrollRecordNotFound
	}
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.ToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ListUnpaid(ctx context.Context, filter payroll.UnpaidFilter) (payroll.ListPayrollRecordResponse, error) {
	if filter.CycleType != nil {
		if _, err := payroll.PolicyFor(*filter.CycleType); err != nil {
			return payroll.ListPayrollRecordResponse{}, err
		}
	}

	records, err := s.payrollRepo.ListUnpaid(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	resp := payroll.ListPayrollRecordResponse{
		Records:  make([]payroll.PayrollRecordResponse, 0, len(records)),
		Total:    len(records),
		TotalNet: decimal.Zero,
	}
	for _, r := range records {
		resp.Records = append(resp.Records, payroll.ToRecordResponse(r))
		resp.TotalNet = resp.TotalNet.Add(r.NetPay)
	}
	return resp, nil
}

// ========== SETTLEMENT ==========

// Pay implements payroll.PayrollService. The record row is locked first so a
// concurrent settlement waits and then sees it paid. Every adjustment still
// pending for the employee is consumed, including ones added after the record
// was computed.
func (s *PayrollServiceImpl) Pay(ctx context.Context, req payroll.PayRequest) (payroll.PaymentResponse, error) {
	if !validator.IsValidUUID(req.ID) {
		return payroll.PaymentResponse{}, payroll.ErrPayrollRecordNotFound
	}
	if err := req.Validate(); err != nil {
		return payroll.PaymentResponse{}, err
	}

	method := payroll.DefaultPaymentMethod
	if req.PaymentMethod != nil {
		method = *req.PaymentMethod
	}
	paidBy := operatorFromContext(ctx)

	var payment payroll.PaymentRecord
	err := s.tx.WithinTransaction(ctx, database.ReadWrite, func(txCtx context.Context) error {
		record, err := s.payrollRepo.GetByIDForUpdate(txCtx, req.ID)
		if err != nil {
			return err
		}
		if record.Paid {
			return payroll.ErrPayrollRecordAlreadyPaid
		}

		paidAt := s.now().In(s.loc)

		if err := s.payrollRepo.MarkPaid(txCtx, payroll.MarkPaidParams{
			ID:            record.ID,
			PaidAt:        paidAt,
			PaymentMethod: method,
			Notes:         req.Notes,
			PaidBy:        paidBy,
		}); err != nil {
			return err
		}

		pending, err := s.adjustmentRepo.SumPendingByCategory(txCtx, record.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to read pending adjustments: %w", err)
		}
		if drifted(record.Computation, pending) {
			slog.Warn("pending adjustments changed since computation",
				"payroll_record_id", record.ID,
				"employee_id", record.EmployeeID,
				"computed_tips", record.Tips.String(), "pending_tips", pending.Tips.String(),
				"computed_bonuses", record.Bonuses.String(), "pending_bonuses", pending.Bonuses.String(),
				"computed_discounts", record.Discounts.String(), "pending_discounts", pending.Discounts.String(),
				"computed_advances", record.Advances.String(), "pending_advances", pending.Advances.String(),
			)
		}

		consumed, err := s.adjustmentRepo.MarkConsumed(txCtx, record.EmployeeID, record.ID, paidAt)
		if err != nil {
			return err
		}

		payment, err = s.paymentRepo.Append(txCtx, payroll.PaymentRecord{
			PayrollRecordID:     record.ID,
			EmployeeID:          record.EmployeeID,
			EmployeeName:        record.EmployeeName,
			PaidAt:              paidAt,
			PeriodStart:         record.PeriodStart,
			PeriodEnd:           record.PeriodEnd,
			Period:              payroll.PeriodLabel(record.PeriodStart, record.PeriodEnd),
			DaysToPay:           record.DaysToPay,
			BasePay:             record.BasePay,
			Tips:                record.Tips,
			Bonuses:             record.Bonuses,
			Discounts:           record.Discounts,
			Advances:            record.Advances,
			TotalPaid:           record.NetPay,
			PaymentMethod:       method,
			Notes:               req.Notes,
			PaidBy:              paidBy,
			ConsumedAdjustments: len(consumed),
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid) && !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			slog.Error("payroll settlement failed", "payroll_record_id", req.ID, "error", err)
		}
		return payroll.PaymentResponse{}, err
	}

	slog.Info("payroll record settled",
		"payroll_record_id", payment.PayrollRecordID,
		"payment_id", payment.ID,
		"employee_id", payment.EmployeeID,
		"total_paid", payment.TotalPaid.String(),
		"payment_method", payment.PaymentMethod,
		"consumed_adjustments", payment.ConsumedAdjustments,
	)

	return payroll.ToPaymentResponse(payment), nil
}

func drifted(c payroll.Computation, pending adjustment.Totals) bool {
	return !c.Tips.Equal(pending.Tips) ||
		!c.Bonuses.Equal(pending.Bonuses) ||
		!c.Discounts.Equal(pending.Discounts) ||
		!c.Advances.Equal(pending.Advances)
}

// ========== PAYMENTS ==========

func (s *PayrollServiceImpl) ListPayments(ctx context.Context, filter payroll.PaymentFilter) (payroll.ListPaymentResponse, error) {
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPaymentResponse{}, err
	}

	resp := payroll.ListPaymentResponse{
		Payments:  make([]payroll.PaymentResponse, 0, len(payments)),
		Total:     len(payments),
		TotalPaid: decimal.Zero,
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, payroll.ToPaymentResponse(p))
		resp.TotalPaid = resp.TotalPaid.Add(p.TotalPaid)
	}
	return resp, nil
}

// ExportPaymentsCSV writes the payment history matching filter to w.
func (s *PayrollServiceImpl) ExportPaymentsCSV(ctx context.Context, filter payroll.PaymentFilter, w io.Writer) error {
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return err
	}

	rows := make([]payroll.PaymentCSVRow, 0, len(payments))
	for _, p := range payments {
		row := payroll.ToPaymentCSVRow(p)
		row.PaidAt = p.PaidAt.In(s.loc).Format(time.RFC3339)
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write payments csv: %w", err)
	}
	return nil
}
