package adjustment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AdjustmentServiceImpl struct {
	tx             database.Transactor
	adjustmentRepo adjustment.AdjustmentRepository
	employeeRepo   employee.EmployeeRepository
	loc            *time.Location
	now            func() time.Time
}

func NewAdjustmentService(
	tx database.Transactor,
	adjustmentRepo adjustment.AdjustmentRepository,
	employeeRepo employee.EmployeeRepository,
	loc *time.Location,
) adjustment.AdjustmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdjustmentServiceImpl{
		tx:             tx,
		adjustmentRepo: adjustmentRepo,
		employeeRepo:   employeeRepo,
		loc:            loc,
		now:            time.Now,
	}
}

// Create implements adjustment.AdjustmentService. A collective adjustment with
// split set divides the amount among the targets; without it every target
// receives the full amount.
func (s *AdjustmentServiceImpl) Create(ctx context.Context, req adjustment.CreateAdjustmentRequest) (adjustment.CreateAdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return adjustment.CreateAdjustmentResponse{}, err
	}

	date := s.today()
	if req.Date != nil {
		parsed, err := validator.ParseDateIn(*req.Date, s.loc)
		if err != nil {
			return adjustment.CreateAdjustmentResponse{}, validator.ValidationErrors{{Field: "date", Message: "must be in YYYY-MM-DD format"}}
		}
		date = parsed
	}

	amounts := make([]decimal.Decimal, len(req.EmployeeIDs))
	if req.Split {
		parts, err := adjustment.SplitAmount(req.Amount, len(req.EmployeeIDs))
		if err != nil {
			return adjustment.CreateAdjustmentResponse{}, validator.ValidationErrors{{Field: "amount", Message: err.Error()}}
		}
		amounts = parts
	} else {
		for i := range amounts {
			amounts[i] = req.Amount
		}
	}

	var advanceKind *adjustment.AdvanceKind
	if req.Category == adjustment.CategoryAdvance {
		kind := adjustment.AdvanceKindAdvance
		if req.AdvanceKind != nil {
			kind = *req.AdvanceKind
		}
		advanceKind = &kind
	}

	createdAt := s.now()
	rows := make([]*adjustment.Adjustment, 0, len(req.EmployeeIDs))

	err := s.tx.WithinTransaction(ctx, database.ReadWrite, func(txCtx context.Context) error {
		for i, employeeID := range req.EmployeeIDs {
			emp, err := s.employeeRepo.GetByID(txCtx, employeeID)
			if err != nil {
				if errors.Is(err, employee.ErrEmployeeNotFound) {
					return fmt.Errorf("employee %s: %w", employeeID, err)
				}
				return err
			}
			if !emp.IsActive() {
				return fmt.Errorf("employee %s: %w", employeeID, employee.ErrEmployeeInactive)
			}

			name := emp.FullName
			rows = append(rows, &adjustment.Adjustment{
				EmployeeID:   employeeID,
				Date:         date,
				Category:     req.Category,
				Scope:        req.Scope,
				AdvanceKind:  advanceKind,
				Amount:       amounts[i],
				Description:  req.Description,
				Split:        req.Split,
				CreatedAt:    createdAt,
				EmployeeName: &name,
			})
		}

		return s.adjustmentRepo.CreateBatch(txCtx, rows)
	})
	if err != nil {
		return adjustment.CreateAdjustmentResponse{}, err
	}

	resp := adjustment.CreateAdjustmentResponse{
		Adjustments: make([]adjustment.AdjustmentResponse, 0, len(rows)),
		Total:       decimal.Zero,
	}
	for _, a := range rows {
		resp.Adjustments = append(resp.Adjustments, adjustment.ToResponse(*a))
		resp.Total = resp.Total.Add(a.Amount)
	}

	slog.Info("adjustments recorded",
		"category", req.Category,
		"scope", req.Scope,
		"split", req.Split,
		"count", len(rows),
		"total", resp.Total.String(),
	)

	return resp, nil
}

// PendingTotal implements adjustment.AdjustmentService.
func (s *AdjustmentServiceImpl) PendingTotal(ctx context.Context, employeeID string, category adjustment.Category) (decimal.Decimal, error) {
	if _, err := adjustment.ParseCategory(string(category)); err != nil {
		return decimal.Zero, err
	}
	return s.adjustmentRepo.SumPending(ctx, employeeID, category)
}

// ListPending implements adjustment.AdjustmentService.
func (s *AdjustmentServiceImpl) ListPending(ctx context.Context, filter adjustment.PendingFilter) (adjustment.ListPendingResponse, error) {
	if filter.EmployeeID != nil && !validator.IsValidUUID(*filter.EmployeeID) {
		return adjustment.ListPendingResponse{}, validator.ValidationErrors{{Field: "employee_id", Message: "must be a valid UUID"}}
	}

	var resp adjustment.ListPendingResponse
	err := s.tx.WithinTransaction(ctx, database.Snapshot, func(txCtx context.Context) error {
		rows, err := s.adjustmentRepo.ListPending(txCtx, filter)
		if err != nil {
			return err
		}

		resp.Adjustments = make([]adjustment.AdjustmentResponse, 0, len(rows))
		for _, a := range rows {
			resp.Adjustments = append(resp.Adjustments, adjustment.ToResponse(a))
		}

		if filter.EmployeeID == nil {
			return nil
		}
		totals, err := s.adjustmentRepo.SumPendingByCategory(txCtx, *filter.EmployeeID)
		if err != nil {
			return err
		}
		resp.Totals = &adjustment.PendingTotalsResponse{
			EmployeeID: *filter.EmployeeID,
			Tips:       totals.Tips,
			Bonuses:    totals.Bonuses,
			Discounts:  totals.Discounts,
			Advances:   totals.Advances,
		}
		return nil
	})
	if err != nil {
		return adjustment.ListPendingResponse{}, err
	}

	return resp, nil
}

// ListHistory implements adjustment.AdjustmentService.
func (s *AdjustmentServiceImpl) ListHistory(ctx context.Context, filter adjustment.HistoryFilter) (adjustment.ListHistoryResponse, error) {
	if err := filter.Validate(); err != nil {
		return adjustment.ListHistoryResponse{}, err
	}
	if filter.Limit == 0 {
		filter.Limit = adjustment.DefaultHistoryLimit
	}

	rows, err := s.adjustmentRepo.ListHistory(ctx, filter)
	if err != nil {
		return adjustment.ListHistoryResponse{}, err
	}

	resp := adjustment.ListHistoryResponse{
		Adjustments: make([]adjustment.AdjustmentResponse, 0, len(rows)),
		Total:       len(rows),
	}
	for _, a := range rows {
		resp.Adjustments = append(resp.Adjustments, adjustment.ToResponse(a))
	}
	return resp, nil
}

func (s *AdjustmentServiceImpl) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}
