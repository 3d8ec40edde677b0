package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid token")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Unprocessable(w, "EMPLOYEE_INACTIVE", "Employee is not active")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, "Period start must not be after period end", nil)

	// Adjustment domain errors
	case errors.Is(err, adjustment.ErrInvalidCategory):
		BadRequest(w, "Unknown adjustment category", nil)
	case errors.Is(err, adjustment.ErrNothingToSplit):
		Unprocessable(w, "NOTHING_TO_SPLIT", "At least one employee is required")
	case errors.Is(err, adjustment.ErrAmountTooSmall):
		Unprocessable(w, "AMOUNT_TOO_SMALL", "Amount is too small to split between the employees")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrInvalidCycleType):
		Unprocessable(w, "INVALID_CYCLE_TYPE", "Cycle type must be biweekly or weekly")
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, "ALREADY_PAID", "Payroll record is already paid")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
