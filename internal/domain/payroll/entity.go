package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "Efectivo"

// PayrollRecord is a saved computation. It goes from unpaid to paid at most
// once and is never deleted.
type PayrollRecord struct {
	ID string
	Computation
	Paid          bool
	PaidAt        *time.Time
	PaymentMethod *string
	Notes         *string
	PaidBy        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentRecord is the append-only history entry written by a settlement.
type PaymentRecord struct {
	ID                  string
	PayrollRecordID     string
	EmployeeID          string
	EmployeeName        string
	PaidAt              time.Time
	PeriodStart         time.Time
	PeriodEnd           time.Time
	Period              string
	DaysToPay           decimal.Decimal
	BasePay             decimal.Decimal
	Tips                decimal.Decimal
	Bonuses             decimal.Decimal
	Discounts           decimal.Decimal
	Advances            decimal.Decimal
	TotalPaid           decimal.Decimal
	PaymentMethod       string
	Notes               *string
	PaidBy              *string
	ConsumedAdjustments int
	CreatedAt           time.Time
}

// PeriodLabel renders a period the way payment history shows it.
func PeriodLabel(start, end time.Time) string {
	return start.Format("2006-01-02") + " a " + end.Format("2006-01-02")
}

// MarkPaidParams are the fields written when a record is settled.
type MarkPaidParams struct {
	ID            string
	PaidAt        time.Time
	PaymentMethod string
	Notes         *string
	PaidBy        *string
}
