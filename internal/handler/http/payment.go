package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
)

type PaymentHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	ExportCSV(w http.ResponseWriter, r *http.Request)
}

type paymentHandlerImpl struct {
	payrollService payroll.PayrollService
	loc            *time.Location
}

func NewPaymentHandler(payrollService payroll.PayrollService, loc *time.Location) PaymentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &paymentHandlerImpl{payrollService: payrollService, loc: loc}
}

func (h *paymentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ListPayments(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *paymentHandlerImpl) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("payments_%s.csv", time.Now().In(h.loc).Format("20060102"))
	response.CSVAttachment(w, filename)
	if err := h.payrollService.ExportPaymentsCSV(r.Context(), filter, w); err != nil {
		// Headers are already written.
		slog.Error("payment export failed", "error", err)
	}
}

// parseFilter reads employee_id, from and to. Dates are YYYY-MM-DD in the
// business timezone and to is inclusive.
func (h *paymentHandlerImpl) parseFilter(r *http.Request) (payroll.PaymentFilter, error) {
	query := r.URL.Query()
	var (
		filter payroll.PaymentFilter
		errs   validator.ValidationErrors
	)

	if employeeID := query.Get("employee_id"); employeeID != "" {
		if validator.IsValidUUID(employeeID) {
			filter.EmployeeID = &employeeID
		} else {
			errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
		}
	}
	if from := query.Get("from"); from != "" {
		if d, err := validator.ParseDateIn(from, h.loc); err == nil {
			filter.From = &d
		} else {
			errs = append(errs, validator.ValidationError{Field: "from", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if to := query.Get("to"); to != "" {
		if d, err := validator.ParseDateIn(to, h.loc); err == nil {
			filter.To = &d
		} else {
			errs = append(errs, validator.ValidationError{Field: "to", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "must not be before from"})
	}

	if len(errs) > 0 {
		return payroll.PaymentFilter{}, errs
	}
	return filter, nil
}
