package adjustment

import (
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== CREATE DTOs ==========

// MaxAmount is the largest amount the adjustments table can hold.
var MaxAmount = decimal.RequireFromString("999999999999.99")

type CreateAdjustmentRequest struct {
	Category    Category        `json:"-"`
	EmployeeIDs []string        `json:"employee_ids"`
	Scope       Scope           `json:"scope"`
	Split       bool            `json:"split"`
	AdvanceKind *AdvanceKind    `json:"advance_kind,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date,omitempty"`
	Description string          `json:"description"`
}

func (r *CreateAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, err := ParseCategory(string(r.Category)); err != nil {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "must be one of tip, bonus, discount, advance"})
	}

	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}
	seen := make(map[string]struct{}, len(r.EmployeeIDs))
	for _, id := range r.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "invalid employee id: " + id})
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "duplicate employee id: " + id})
		}
		seen[id] = struct{}{}
	}

	switch r.Scope {
	case ScopeIndividual:
		if len(r.EmployeeIDs) > 1 {
			errs = append(errs, validator.ValidationError{Field: "scope", Message: "individual adjustments target exactly one employee"})
		}
		if r.Split {
			errs = append(errs, validator.ValidationError{Field: "split", Message: "only collective adjustments can be split"})
		}
	case ScopeCollective:
	default:
		errs = append(errs, validator.ValidationError{Field: "scope", Message: "must be 'individual' or 'collective'"})
	}

	if r.Category == CategoryAdvance {
		if r.AdvanceKind != nil && *r.AdvanceKind != AdvanceKindAdvance && *r.AdvanceKind != AdvanceKindConsumption {
			errs = append(errs, validator.ValidationError{Field: "advance_kind", Message: "must be 'advance' or 'consumption'"})
		}
	} else if r.AdvanceKind != nil {
		errs = append(errs, validator.ValidationError{Field: "advance_kind", Message: "only allowed for advances"})
	}

	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	} else if !validator.HasAtMostCents(r.Amount) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must have at most two decimal places"})
	} else if r.Amount.GreaterThan(MaxAmount) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must not exceed " + MaxAmount.String()})
	}

	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(r.Description) > 500 {
		errs = append(errs, validator.ValidationError{Field: "description", Message: "must be at most 500 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type AdjustmentResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    *string         `json:"employee_name,omitempty"`
	Date            string          `json:"date"`
	Category        Category        `json:"category"`
	Scope           Scope           `json:"scope"`
	AdvanceKind     *AdvanceKind    `json:"advance_kind,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Split           bool            `json:"split"`
	Consumed        bool            `json:"consumed"`
	ConsumedAt      *time.Time      `json:"consumed_at,omitempty"`
	PayrollRecordID *string         `json:"payroll_record_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type CreateAdjustmentResponse struct {
	Adjustments []AdjustmentResponse `json:"adjustments"`
	Total       decimal.Decimal      `json:"total"`
}

type PendingFilter struct {
	EmployeeID *string
	Category   *Category
}

// DefaultHistoryLimit caps a history listing when the caller gives no limit
// and is also the largest limit accepted.
const DefaultHistoryLimit = 100

// HistoryFilter selects consumed and pending adjustments, newest date first.
type HistoryFilter struct {
	EmployeeID *string
	Category   *Category
	Limit      int
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if f.Limit < 0 || f.Limit > DefaultHistoryLimit {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be between 1 and 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PendingTotalsResponse struct {
	EmployeeID string          `json:"employee_id"`
	Tips       decimal.Decimal `json:"tips"`
	Bonuses    decimal.Decimal `json:"bonuses"`
	Discounts  decimal.Decimal `json:"discounts"`
	Advances   decimal.Decimal `json:"advances"`
}

type ListPendingResponse struct {
	Adjustments []AdjustmentResponse   `json:"adjustments"`
	Totals      *PendingTotalsResponse `json:"totals,omitempty"`
}

type ListHistoryResponse struct {
	Adjustments []AdjustmentResponse `json:"adjustments"`
	Total       int                  `json:"total"`
}

func ToResponse(a Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		EmployeeName:    a.EmployeeName,
		Date:            a.Date.Format(validator.DateLayout),
		Category:        a.Category,
		Scope:           a.Scope,
		AdvanceKind:     a.AdvanceKind,
		Amount:          a.Amount,
		Description:     a.Description,
		Split:           a.Split,
		Consumed:        a.Consumed,
		ConsumedAt:      a.ConsumedAt,
		PayrollRecordID: a.PayrollRecordID,
		CreatedAt:       a.CreatedAt,
	}
}
