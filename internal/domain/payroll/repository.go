package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	Insert(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (PayrollRecord, error)
	// MarkPaid flips paid only while it is still false and returns
	// ErrPayrollRecordAlreadyPaid otherwise.
	MarkPaid(ctx context.Context, params MarkPaidParams) error
	ListUnpaid(ctx context.Context, filter UnpaidFilter) ([]PayrollRecord, error)
}

type PaymentRepository interface {
	Append(ctx context.Context, payment PaymentRecord) (PaymentRecord, error)
	List(ctx context.Context, filter PaymentFilter) ([]PaymentRecord, error)
}

type UnpaidFilter struct {
	EmployeeID *string
	CycleType  *CycleType
}

type PaymentFilter struct {
	EmployeeID *string
	From       *time.Time
	To         *time.Time // inclusive date
}
