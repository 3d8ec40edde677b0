package adjustment

import (
	"testing"

	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	empA = "0190a1b2-0000-7000-8000-000000000001"
	empB = "0190a1b2-0000-7000-8000-000000000002"
)

func validRequest() CreateAdjustmentRequest {
	return CreateAdjustmentRequest{
		Category:    CategoryTip,
		EmployeeIDs: []string{empA},
		Scope:       ScopeIndividual,
		Amount:      d("50000"),
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.ToMap()
}

func TestCreateAdjustmentRequest_Valid(t *testing.T) {
	req := validRequest()
	assert.NoError(t, req.Validate())

	date := "2024-03-01"
	kind := AdvanceKindConsumption
	req = CreateAdjustmentRequest{
		Category:    CategoryAdvance,
		EmployeeIDs: []string{empA},
		Scope:       ScopeIndividual,
		AdvanceKind: &kind,
		Amount:      d("12000.50"),
		Date:        &date,
	}
	assert.NoError(t, req.Validate())
}

func TestCreateAdjustmentRequest_NonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-10"} {
		req := validRequest()
		req.Amount = d(amount)
		assert.Contains(t, fieldsOf(t, req.Validate()), "amount")
	}
}

func TestCreateAdjustmentRequest_SubCentAmount(t *testing.T) {
	req := validRequest()
	req.Amount = d("10.001")
	assert.Contains(t, fieldsOf(t, req.Validate()), "amount")
}

func TestCreateAdjustmentRequest_AmountAboveColumnLimit(t *testing.T) {
	req := validRequest()
	req.Amount = d("1000000000000")
	assert.Equal(t, "must not exceed 999999999999.99", fieldsOf(t, req.Validate())["amount"])

	req.Amount = MaxAmount
	assert.NoError(t, req.Validate())
}

func TestCreateAdjustmentRequest_UnknownCategory(t *testing.T) {
	req := validRequest()
	req.Category = "gratuity"
	assert.Contains(t, fieldsOf(t, req.Validate()), "category")
}

func TestCreateAdjustmentRequest_IndividualWithManyEmployees(t *testing.T) {
	req := validRequest()
	req.EmployeeIDs = []string{empA, empB}
	assert.Contains(t, fieldsOf(t, req.Validate()), "scope")
}

func TestCreateAdjustmentRequest_SplitRequiresCollective(t *testing.T) {
	req := validRequest()
	req.Split = true
	assert.Contains(t, fieldsOf(t, req.Validate()), "split")

	req.Scope = ScopeCollective
	req.EmployeeIDs = []string{empA, empB}
	assert.NoError(t, req.Validate())
}

func TestCreateAdjustmentRequest_DuplicateEmployees(t *testing.T) {
	req := validRequest()
	req.Scope = ScopeCollective
	req.EmployeeIDs = []string{empA, empA}
	assert.Contains(t, fieldsOf(t, req.Validate()), "employee_ids")
}

func TestCreateAdjustmentRequest_NoEmployees(t *testing.T) {
	req := validRequest()
	req.EmployeeIDs = nil
	assert.Contains(t, fieldsOf(t, req.Validate()), "employee_ids")
}

func TestCreateAdjustmentRequest_AdvanceKindOnlyForAdvances(t *testing.T) {
	kind := AdvanceKindAdvance
	req := validRequest()
	req.AdvanceKind = &kind
	assert.Contains(t, fieldsOf(t, req.Validate()), "advance_kind")

	bogus := AdvanceKind("loan")
	req.Category = CategoryAdvance
	req.AdvanceKind = &bogus
	assert.Contains(t, fieldsOf(t, req.Validate()), "advance_kind")
}

func TestCreateAdjustmentRequest_BadDate(t *testing.T) {
	date := "01/03/2024"
	req := validRequest()
	req.Date = &date
	assert.Contains(t, fieldsOf(t, req.Validate()), "date")
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("tips")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestTotals_AddAndGet(t *testing.T) {
	var totals Totals
	totals = totals.Add(CategoryTip, d("10"))
	totals = totals.Add(CategoryTip, d("5.50"))
	totals = totals.Add(CategoryAdvance, d("3"))

	assert.True(t, totals.Get(CategoryTip).Equal(d("15.50")))
	assert.True(t, totals.Get(CategoryAdvance).Equal(d("3")))
	assert.True(t, totals.Get(CategoryBonus).IsZero())
}
