package payroll

import "errors"

var (
	ErrPayrollRecordNotFound    = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyPaid = errors.New("payroll record already paid")
	ErrInvalidCycleType         = errors.New("invalid cycle type, must be 'biweekly' or 'weekly'")
)
