package payroll

import (
	"context"
	"io"
)

// PayrollService computes payroll and settles saved records
type PayrollService interface {
	// Compute derives a payroll breakdown without persisting anything.
	Compute(ctx context.Context, req ComputeRequest) (ComputationResponse, error)
	// ComputeAll computes every active employee on the given cycle.
	ComputeAll(ctx context.Context, req ComputeAllRequest) (ComputeAllResponse, error)
	// Save persists a fresh computation as an unpaid record.
	Save(ctx context.Context, req ComputeRequest) (SaveResponse, error)
	GetRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListUnpaid(ctx context.Context, filter UnpaidFilter) (ListPayrollRecordResponse, error)

	// Pay settles a record: marks it paid, consumes the employee's pending
	// adjustments and appends a payment, all in one transaction.
	Pay(ctx context.Context, req PayRequest) (PaymentResponse, error)

	ListPayments(ctx context.Context, filter PaymentFilter) (ListPaymentResponse, error)
	ExportPaymentsCSV(ctx context.Context, filter PaymentFilter, w io.Writer) error
}
