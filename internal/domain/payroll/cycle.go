package payroll

import (
	"github.com/shopspring/decimal"
)

// CycleType selects the pay-period policy.
type CycleType string

const (
	CycleBiweekly CycleType = "biweekly"
	CycleWeekly   CycleType = "weekly"
)

// CyclePolicy describes one pay period. An employee reaching MinimumDays
// effective days is paid the full NominalDays.
type CyclePolicy struct {
	Type            CycleType
	NominalDays     decimal.Decimal
	MinimumDays     decimal.Decimal
	PeriodsPerMonth decimal.Decimal
}

var policies = map[CycleType]CyclePolicy{
	CycleBiweekly: {
		Type:            CycleBiweekly,
		NominalDays:     decimal.NewFromInt(15),
		MinimumDays:     decimal.NewFromInt(13),
		PeriodsPerMonth: decimal.NewFromInt(2),
	},
	CycleWeekly: {
		Type:            CycleWeekly,
		NominalDays:     decimal.NewFromInt(7),
		MinimumDays:     decimal.NewFromInt(6),
		PeriodsPerMonth: decimal.NewFromInt(4),
	},
}

func PolicyFor(cycle CycleType) (CyclePolicy, error) {
	p, ok := policies[cycle]
	if !ok {
		return CyclePolicy{}, ErrInvalidCycleType
	}
	return p, nil
}

// PeriodSalary is the slice of the monthly salary covered by one period.
func (p CyclePolicy) PeriodSalary(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Div(p.PeriodsPerMonth)
}

func (p CyclePolicy) DailyRate(monthly decimal.Decimal) decimal.Decimal {
	return p.PeriodSalary(monthly).Div(p.NominalDays)
}

// DaysToPay translates effective days into paid days. Days above the minimum
// are paid on top of the nominal period and each day short of it is deducted.
// The result is not floored and goes negative once the shortfall exceeds the
// nominal period.
func (p CyclePolicy) DaysToPay(effective decimal.Decimal) decimal.Decimal {
	if effective.GreaterThanOrEqual(p.MinimumDays) {
		return p.NominalDays.Add(effective.Sub(p.MinimumDays))
	}
	return p.NominalDays.Sub(p.MinimumDays.Sub(effective))
}
