package payroll

import (
	"testing"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.ToMap()
}

func TestComputeRequest_Validate(t *testing.T) {
	req := ComputeRequest{
		EmployeeID:  "0190a1b2-0000-7000-8000-000000000001",
		CycleType:   "biweekly",
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-15",
	}
	assert.NoError(t, req.Validate())

	override := d("12")
	req.EffectiveDaysOverride = &override
	req.SubstituteHalfDays = d("1.5")
	assert.NoError(t, req.Validate())
}

func TestComputeRequest_Validate_Errors(t *testing.T) {
	negative := d("-1")
	req := ComputeRequest{
		EmployeeID:            "not-a-uuid",
		PeriodStart:           "2024-03-15",
		PeriodEnd:             "2024-03-01",
		EffectiveDaysOverride: &negative,
		SubstituteHalfDays:    d("0.3"),
		ExtraHalfDays:         decimal.NewFromInt(-2),
	}

	fields := validationFields(t, req.Validate())
	assert.Contains(t, fields, "employee_id")
	assert.Contains(t, fields, "period_end")
	assert.Contains(t, fields, "effective_days_override")
	assert.Contains(t, fields, "substitute_half_days")
	assert.Contains(t, fields, "extra_half_days")
}

func TestComputeRequest_Validate_DayBounds(t *testing.T) {
	base := ComputeRequest{
		EmployeeID:  "0190a1b2-0000-7000-8000-000000000001",
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-15",
	}

	tests := []struct {
		name    string
		mutate  func(r *ComputeRequest)
		field   string
		message string
	}{
		{
			name:    "override off the half-day grid",
			mutate:  func(r *ComputeRequest) { v := d("12.25"); r.EffectiveDaysOverride = &v },
			field:   "effective_days_override",
			message: "must be a non-negative multiple of 0.5",
		},
		{
			name:    "override beyond a month",
			mutate:  func(r *ComputeRequest) { v := d("100000"); r.EffectiveDaysOverride = &v },
			field:   "effective_days_override",
			message: "must not exceed 31",
		},
		{
			name:    "substitute days beyond a month",
			mutate:  func(r *ComputeRequest) { r.SubstituteHalfDays = d("31.5") },
			field:   "substitute_half_days",
			message: "must not exceed 31",
		},
		{
			name:    "extra days beyond a month",
			mutate:  func(r *ComputeRequest) { r.ExtraHalfDays = d("40") },
			field:   "extra_half_days",
			message: "must not exceed 31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			fields := validationFields(t, req.Validate())
			assert.Equal(t, tt.message, fields[tt.field])
		})
	}

	atLimit := base
	limit := d("31")
	atLimit.EffectiveDaysOverride = &limit
	atLimit.SubstituteHalfDays = d("31")
	atLimit.ExtraHalfDays = d("30.5")
	assert.NoError(t, atLimit.Validate())
}

func TestComputeRequest_Validate_MissingFields(t *testing.T) {
	req := ComputeRequest{}
	fields := validationFields(t, req.Validate())
	assert.Equal(t, "is required", fields["employee_id"])
	assert.Contains(t, fields, "period_start")
	assert.Contains(t, fields, "period_end")
}

func TestComputeAllRequest_Validate(t *testing.T) {
	req := ComputeAllRequest{CycleType: "weekly", PeriodStart: "2024-03-01", PeriodEnd: "2024-03-07"}
	assert.NoError(t, req.Validate())

	req.CycleType = ""
	assert.Contains(t, validationFields(t, req.Validate()), "cycle_type")
}

func TestPayRequest_Validate(t *testing.T) {
	method := "Transferencia"
	req := PayRequest{ID: "0190a1b2-0000-7000-8000-0000000000aa", PaymentMethod: &method}
	assert.NoError(t, req.Validate())

	blank := "  "
	req.PaymentMethod = &blank
	assert.Contains(t, validationFields(t, req.Validate()), "payment_method")

	req = PayRequest{ID: "42"}
	assert.Contains(t, validationFields(t, req.Validate()), "id")
}

func TestPeriodLabel(t *testing.T) {
	c := Calculate(biweeklyInput("13", adjustment.Totals{}))
	assert.Equal(t, "2024-03-01 a 2024-03-15", PeriodLabel(c.PeriodStart, c.PeriodEnd))
}
