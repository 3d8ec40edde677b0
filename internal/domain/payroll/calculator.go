package payroll

import (
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/shopspring/decimal"
)

// CalculationInput carries everything Calculate needs. Gathering it is the
// service's job.
type CalculationInput struct {
	EmployeeID     string
	EmployeeName   string
	Policy         CyclePolicy
	PeriodStart    time.Time
	PeriodEnd      time.Time
	MonthlySalary  decimal.Decimal
	CompletedDays  decimal.Decimal
	DaysOverridden bool
	SubstituteDays decimal.Decimal
	ExtraDays      decimal.Decimal
	Pending        adjustment.Totals
}

// Computation is a payroll derivation with every intermediate figure kept.
type Computation struct {
	EmployeeID     string
	EmployeeName   string
	CycleType      CycleType
	PeriodStart    time.Time
	PeriodEnd      time.Time
	CompletedDays  decimal.Decimal
	DaysOverridden bool
	SubstituteDays decimal.Decimal
	ExtraDays      decimal.Decimal
	EffectiveDays  decimal.Decimal
	NominalDays    decimal.Decimal
	MinimumDays    decimal.Decimal
	DaysToPay      decimal.Decimal
	MonthlySalary  decimal.Decimal
	PeriodSalary   decimal.Decimal
	DailyRate      decimal.Decimal
	BasePay        decimal.Decimal
	Tips           decimal.Decimal
	Bonuses        decimal.Decimal
	Discounts      decimal.Decimal
	Advances       decimal.Decimal
	NetPay         decimal.Decimal
}

// Calculate derives the payroll breakdown. Base pay is worked out from the
// unrounded daily rate and rounded to cents once; net pay is exact over the
// rounded figures.
func Calculate(in CalculationInput) Computation {
	p := in.Policy

	effective := in.CompletedDays.Add(in.SubstituteDays).Add(in.ExtraDays)
	daysToPay := p.DaysToPay(effective)

	periodSalary := p.PeriodSalary(in.MonthlySalary)
	basePay := periodSalary.Mul(daysToPay).Div(p.NominalDays).Round(2)

	tips := in.Pending.Tips.Round(2)
	bonuses := in.Pending.Bonuses.Round(2)
	discounts := in.Pending.Discounts.Round(2)
	advances := in.Pending.Advances.Round(2)

	net := basePay.Add(tips).Add(bonuses).Sub(discounts).Sub(advances)

	return Computation{
		EmployeeID:     in.EmployeeID,
		EmployeeName:   in.EmployeeName,
		CycleType:      p.Type,
		PeriodStart:    in.PeriodStart,
		PeriodEnd:      in.PeriodEnd,
		CompletedDays:  in.CompletedDays,
		DaysOverridden: in.DaysOverridden,
		SubstituteDays: in.SubstituteDays,
		ExtraDays:      in.ExtraDays,
		EffectiveDays:  effective,
		NominalDays:    p.NominalDays,
		MinimumDays:    p.MinimumDays,
		DaysToPay:      daysToPay,
		MonthlySalary:  in.MonthlySalary,
		PeriodSalary:   periodSalary.Round(2),
		DailyRate:      p.DailyRate(in.MonthlySalary).Round(4),
		BasePay:        basePay,
		Tips:           tips,
		Bonuses:        bonuses,
		Discounts:      discounts,
		Advances:       advances,
		NetPay:         net,
	}
}
