package payroll

import (
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPUTE DTOs ==========

// MaxPeriodDays caps every day-count input of a computation.
var MaxPeriodDays = decimal.NewFromInt(31)

// ComputeRequest asks for a payroll derivation. Substitute and extra days are
// granted in half-day steps. CycleType falls back to the employee's own cycle.
type ComputeRequest struct {
	EmployeeID            string           `json:"employee_id"`
	CycleType             string           `json:"cycle_type"`
	PeriodStart           string           `json:"period_start"`
	PeriodEnd             string           `json:"period_end"`
	EffectiveDaysOverride *decimal.Decimal `json:"effective_days_override,omitempty"`
	SubstituteHalfDays    decimal.Decimal  `json:"substitute_half_days"`
	ExtraHalfDays         decimal.Decimal  `json:"extra_half_days"`
}

func (r *ComputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}

	errs = append(errs, validatePeriod(r.PeriodStart, r.PeriodEnd)...)

	if r.EffectiveDaysOverride != nil {
		if msg := halfDaysMessage(*r.EffectiveDaysOverride); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "effective_days_override", Message: msg})
		}
	}
	if msg := halfDaysMessage(r.SubstituteHalfDays); msg != "" {
		errs = append(errs, validator.ValidationError{Field: "substitute_half_days", Message: msg})
	}
	if msg := halfDaysMessage(r.ExtraHalfDays); msg != "" {
		errs = append(errs, validator.ValidationError{Field: "extra_half_days", Message: msg})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ComputeAllRequest struct {
	CycleType   string `json:"cycle_type"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (r *ComputeAllRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CycleType) {
		errs = append(errs, validator.ValidationError{Field: "cycle_type", Message: "is required"})
	}
	errs = append(errs, validatePeriod(r.PeriodStart, r.PeriodEnd)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func halfDaysMessage(d decimal.Decimal) string {
	if !validator.IsHalfStep(d) {
		return "must be a non-negative multiple of 0.5"
	}
	if d.GreaterThan(MaxPeriodDays) {
		return "must not exceed " + MaxPeriodDays.String()
	}
	return ""
}

func validatePeriod(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	startDate, startOK := validator.IsValidDate(start)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be in YYYY-MM-DD format"})
	}
	endDate, endOK := validator.IsValidDate(end)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be in YYYY-MM-DD format"})
	}
	if startOK && endOK && startDate.After(endDate) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}
	return errs
}

// ========== SETTLEMENT DTOs ==========

type PayRequest struct {
	ID            string  `json:"-"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (r *PayRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "must be a valid UUID"})
	}
	if r.PaymentMethod != nil && (validator.IsEmpty(*r.PaymentMethod) || len(*r.PaymentMethod) > 50) {
		errs = append(errs, validator.ValidationError{Field: "payment_method", Message: "must be 1-50 characters"})
	}
	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs = append(errs, validator.ValidationError{Field: "notes", Message: "must be at most 1000 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type ComputationResponse struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	CycleType      CycleType       `json:"cycle_type"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	CompletedDays  decimal.Decimal `json:"completed_days"`
	DaysOverridden bool            `json:"days_overridden"`
	SubstituteDays decimal.Decimal `json:"substitute_half_days"`
	ExtraDays      decimal.Decimal `json:"extra_half_days"`
	EffectiveDays  decimal.Decimal `json:"effective_days"`
	NominalDays    decimal.Decimal `json:"nominal_days"`
	MinimumDays    decimal.Decimal `json:"minimum_days"`
	DaysToPay      decimal.Decimal `json:"days_to_pay"`
	MonthlySalary  decimal.Decimal `json:"monthly_salary"`
	PeriodSalary   decimal.Decimal `json:"period_salary"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	BasePay        decimal.Decimal `json:"base_pay"`
	Tips           decimal.Decimal `json:"tips"`
	Bonuses        decimal.Decimal `json:"bonuses"`
	Discounts      decimal.Decimal `json:"discounts"`
	Advances       decimal.Decimal `json:"advances"`
	NetPay         decimal.Decimal `json:"net_pay"`
}

type ComputeAllResponse struct {
	Results  []ComputationResponse `json:"results"`
	Failures []ComputeFailure      `json:"failures"`
	TotalNet decimal.Decimal       `json:"total_net"`
}

type ComputeFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type SaveResponse struct {
	ID string `json:"id"`
	ComputationResponse
}

type PayrollRecordResponse struct {
	ID string `json:"id"`
	ComputationResponse
	Paid          bool       `json:"paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	PaidBy        *string    `json:"paid_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ListPayrollRecordResponse struct {
	Records  []PayrollRecordResponse `json:"records"`
	Total    int                     `json:"total"`
	TotalNet decimal.Decimal         `json:"total_net"`
}

type PaymentResponse struct {
	ID                  string          `json:"id"`
	PayrollRecordID     string          `json:"payroll_record_id"`
	EmployeeID          string          `json:"employee_id"`
	EmployeeName        string          `json:"employee_name"`
	PaidAt              time.Time       `json:"paid_at"`
	Period              string          `json:"period"`
	DaysToPay           decimal.Decimal `json:"days_to_pay"`
	BasePay             decimal.Decimal `json:"base_pay"`
	Tips                decimal.Decimal `json:"tips"`
	Bonuses             decimal.Decimal `json:"bonuses"`
	Discounts           decimal.Decimal `json:"discounts"`
	Advances            decimal.Decimal `json:"advances"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
	PaymentMethod       string          `json:"payment_method"`
	Notes               *string         `json:"notes,omitempty"`
	PaidBy              *string         `json:"paid_by,omitempty"`
	ConsumedAdjustments int             `json:"consumed_adjustments"`
}

type ListPaymentResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	Total     int               `json:"total"`
	TotalPaid decimal.Decimal   `json:"total_paid"`
}

// PaymentCSVRow is one line of the payment history export.
type PaymentCSVRow struct {
	PaidAt        string `csv:"paid_at"`
	EmployeeName  string `csv:"employee"`
	PeriodStart   string `csv:"period_start"`
	PeriodEnd     string `csv:"period_end"`
	DaysToPay     string `csv:"days_to_pay"`
	BasePay       string `csv:"base_pay"`
	Tips          string `csv:"tips"`
	Bonuses       string `csv:"bonuses"`
	Discounts     string `csv:"discounts"`
	Advances      string `csv:"advances"`
	TotalPaid     string `csv:"total_paid"`
	PaymentMethod string `csv:"payment_method"`
	Notes         string `csv:"notes"`
}

func ToComputationResponse(c Computation) ComputationResponse {
	return ComputationResponse{
		EmployeeID:     c.EmployeeID,
		EmployeeName:   c.EmployeeName,
		CycleType:      c.CycleType,
		PeriodStart:    c.PeriodStart.Format(validator.DateLayout),
		PeriodEnd:      c.PeriodEnd.Format(validator.DateLayout),
		CompletedDays:  c.CompletedDays,
		DaysOverridden: c.DaysOverridden,
		SubstituteDays: c.SubstituteDays,
		ExtraDays:      c.ExtraDays,
		EffectiveDays:  c.EffectiveDays,
		NominalDays:    c.NominalDays,
		MinimumDays:    c.MinimumDays,
		DaysToPay:      c.DaysToPay,
		MonthlySalary:  c.MonthlySalary,
		PeriodSalary:   c.PeriodSalary,
		DailyRate:      c.DailyRate,
		BasePay:        c.BasePay,
		Tips:           c.Tips,
		Bonuses:        c.Bonuses,
		Discounts:      c.Discounts,
		Advances:       c.Advances,
		NetPay:         c.NetPay,
	}
}

func ToRecordResponse(r PayrollRecord) PayrollRecordResponse {
	return PayrollRecordResponse{
		ID:                  r.ID,
		ComputationResponse: ToComputationResponse(r.Computation),
		Paid:                r.Paid,
		PaidAt:              r.PaidAt,
		PaymentMethod:       r.PaymentMethod,
		Notes:               r.Notes,
		PaidBy:              r.PaidBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func ToPaymentResponse(p PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:                  p.ID,
		PayrollRecordID:     p.PayrollRecordID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		PaidAt:              p.PaidAt,
		Period:              p.Period,
		DaysToPay:           p.DaysToPay,
		BasePay:             p.BasePay,
		Tips:                p.Tips,
		Bonuses:             p.Bonuses,
		Discounts:           p.Discounts,
		Advances:            p.Advances,
		TotalPaid:           p.TotalPaid,
		PaymentMethod:       p.PaymentMethod,
		Notes:               p.Notes,
		PaidBy:              p.PaidBy,
		ConsumedAdjustments: p.ConsumedAdjustments,
	}
}

func ToPaymentCSVRow(p PaymentRecord) PaymentCSVRow {
	notes := ""
	if p.Notes != nil {
		notes = *p.Notes
	}
	return PaymentCSVRow{
		PaidAt:        p.PaidAt.Format(time.RFC3339),
		EmployeeName:  p.EmployeeName,
		PeriodStart:   p.PeriodStart.Format(validator.DateLayout),
		PeriodEnd:     p.PeriodEnd.Format(validator.DateLayout),
		DaysToPay:     p.DaysToPay.String(),
		BasePay:       p.BasePay.StringFixed(2),
		Tips:          p.Tips.StringFixed(2),
		Bonuses:       p.Bonuses.StringFixed(2),
		Discounts:     p.Discounts.StringFixed(2),
		Advances:      p.Advances.StringFixed(2),
		TotalPaid:     p.TotalPaid.StringFixed(2),
		PaymentMethod: p.PaymentMethod,
		Notes:         notes,
	}
}
