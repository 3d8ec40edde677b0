package adjustment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category tags an adjustment. Tips and bonuses add to net pay, discounts and
// advances subtract from it.
type Category string

const (
	CategoryTip      Category = "tip"
	CategoryBonus    Category = "bonus"
	CategoryDiscount Category = "discount"
	CategoryAdvance  Category = "advance"
)

// Categories lists every category in settlement order.
func Categories() []Category {
	return []Category{CategoryTip, CategoryBonus, CategoryDiscount, CategoryAdvance}
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryTip, CategoryBonus, CategoryDiscount, CategoryAdvance:
		return c, nil
	}
	return "", ErrInvalidCategory
}

type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeCollective Scope = "collective"
)

// AdvanceKind distinguishes cash advances from in-house consumption charges.
type AdvanceKind string

const (
	AdvanceKindAdvance     AdvanceKind = "advance"
	AdvanceKindConsumption AdvanceKind = "consumption"
)

type Adjustment struct {
	ID              string
	EmployeeID      string
	Date            time.Time
	Category        Category
	Scope           Scope
	AdvanceKind     *AdvanceKind
	Amount          decimal.Decimal
	Description     string
	Split           bool
	Consumed        bool
	ConsumedAt      *time.Time
	PayrollRecordID *string
	CreatedAt       time.Time

	// Joined fields
	EmployeeName *string
}

// Totals holds the pending sums per category for one employee.
type Totals struct {
	Tips      decimal.Decimal
	Bonuses   decimal.Decimal
	Discounts decimal.Decimal
	Advances  decimal.Decimal
}

func (t Totals) Get(c Category) decimal.Decimal {
	switch c {
	case CategoryTip:
		return t.Tips
	case CategoryBonus:
		return t.Bonuses
	case CategoryDiscount:
		return t.Discounts
	case CategoryAdvance:
		return t.Advances
	}
	return decimal.Zero
}

// Add returns t with amount added to category c.
func (t Totals) Add(c Category, amount decimal.Decimal) Totals {
	switch c {
	case CategoryTip:
		t.Tips = t.Tips.Add(amount)
	case CategoryBonus:
		t.Bonuses = t.Bonuses.Add(amount)
	case CategoryDiscount:
		t.Discounts = t.Discounts.Add(amount)
	case CategoryAdvance:
		t.Advances = t.Advances.Add(amount)
	}
	return t
}
