package payroll

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/resto-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/cmlabs-hris/resto-payroll/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/resto-payroll/internal/service/attendance"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 16, 15, 30, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   payroll.PayrollService
	impl  *PayrollServiceImpl
	emp   employee.Employee
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	store := memory.NewStore()
	svc := NewPayrollService(
		store.Transactor(),
		store.PayrollRepository(),
		store.PaymentRepository(),
		store.Employees(),
		store.AdjustmentRepository(),
		attendanceService.NewAttendanceService(store.Attendance()),
		Config{Location: loc, ComputeConcurrency: 4},
	)
	impl := svc.(*PayrollServiceImpl)
	impl.now = func() time.Time { return fixedNow }

	emp := store.AddEmployee(employee.Employee{
		FullName:      "Ana Torres",
		MonthlySalary: decimal.NewFromInt(3000000),
		PayCycle:      string(payroll.CycleBiweekly),
	})

	return fixture{store: store, svc: svc, impl: impl, emp: emp}
}

func (f fixture) checkIn(t *testing.T, employeeID string, days ...int) {
	t.Helper()
	for _, d := range days {
		f.store.AddMark(attendance.Mark{
			EmployeeID: employeeID,
			Date:       time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC),
			Kind:       attendance.MarkKindCheckIn,
		})
	}
}

func (f fixture) addAdjustment(t *testing.T, employeeID string, category adjustment.Category, amount int64) {
	t.Helper()
	a := &adjustment.Adjustment{
		EmployeeID: employeeID,
		Date:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Category:   category,
		Scope:      adjustment.ScopeIndividual,
		Amount:     decimal.NewFromInt(amount),
	}
	if category == adjustment.CategoryAdvance {
		kind := adjustment.AdvanceKindConsumption
		a.AdvanceKind = &kind
	}
	require.NoError(t, f.store.AdjustmentRepository().CreateBatch(context.Background(), []*adjustment.Adjustment{a}))
}

func daysRange(from, to int) []int {
	var out []int
	for d := from; d <= to; d++ {
		out = append(out, d)
	}
	return out
}

func (f fixture) request() payroll.ComputeRequest {
	return payroll.ComputeRequest{
		EmployeeID:  f.emp.ID,
		CycleType:   string(payroll.CycleBiweekly),
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-15",
	}
}

func (f fixture) saved(t *testing.T) string {
	t.Helper()
	resp, err := f.svc.Save(context.Background(), f.request())
	require.NoError(t, err)
	return resp.ID
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ===== COMPUTE =====

func TestPayrollService_Compute_ThirteenDays(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 13)...)

	resp, err := f.svc.Compute(context.Background(), f.request())
	require.NoError(t, err)

	assert.True(t, resp.CompletedDays.Equal(dec("13")))
	assert.True(t, resp.DaysToPay.Equal(dec("15")))
	assert.True(t, resp.BasePay.Equal(dec("1500000")))
	assert.True(t, resp.NetPay.Equal(dec("1500000")))
	assert.False(t, resp.DaysOverridden)
	assert.Equal(t, "Ana Torres", resp.EmployeeName)
}

func TestPayrollService_Compute_ElevenDays(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 11)...)

	resp, err := f.svc.Compute(context.Background(), f.request())
	require.NoError(t, err)

	assert.True(t, resp.DaysToPay.Equal(dec("13")))
	assert.True(t, resp.BasePay.Equal(dec("1300000")))
}

func TestPayrollService_Compute_FifteenDaysWithTipsAndDiscount(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 15)...)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 30000)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 20000)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryDiscount, 20000)

	resp, err := f.svc.Compute(context.Background(), f.request())
	require.NoError(t, err)

	assert.True(t, resp.DaysToPay.Equal(dec("17")))
	assert.True(t, resp.BasePay.Equal(dec("1700000")))
	assert.True(t, resp.Tips.Equal(dec("50000")))
	assert.True(t, resp.Discounts.Equal(dec("20000")))
	assert.True(t, resp.NetPay.Equal(dec("1730000")))
}

func TestPayrollService_Compute_OverrideIgnoresAttendance(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 5)...)

	req := f.request()
	override := dec("13")
	req.EffectiveDaysOverride = &override
	req.SubstituteHalfDays = dec("0.5")
	req.ExtraHalfDays = dec("1.5")

	resp, err := f.svc.Compute(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.DaysOverridden)
	assert.True(t, resp.CompletedDays.Equal(dec("13")))
	assert.True(t, resp.EffectiveDays.Equal(dec("15")))
	assert.True(t, resp.DaysToPay.Equal(dec("17")))
}

func TestPayrollService_Compute_DefaultsToEmployeeCycle(t *testing.T) {
	f := newFixture(t)
	weekly := f.store.AddEmployee(employee.Employee{
		FullName:      "Luis Gómez",
		MonthlySalary: decimal.NewFromInt(2800000),
		PayCycle:      string(payroll.CycleWeekly),
	})
	f.checkIn(t, weekly.ID, daysRange(1, 6)...)

	resp, err := f.svc.Compute(context.Background(), payroll.ComputeRequest{
		EmployeeID:  weekly.ID,
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-07",
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.CycleWeekly, resp.CycleType)
	assert.True(t, resp.DailyRate.Equal(dec("100000")))
	assert.True(t, resp.BasePay.Equal(dec("700000")))
}

func TestPayrollService_Compute_EmployeeNotFound(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.EmployeeID = "0190a1b2-0000-7000-8000-0000000000ff"
	req.CycleType = "monthly"

	// Lookup happens before the cycle is resolved.
	_, err := f.svc.Compute(context.Background(), req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestPayrollService_Compute_InvalidCycle(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.CycleType = "monthly"

	_, err := f.svc.Compute(context.Background(), req)
	assert.ErrorIs(t, err, payroll.ErrInvalidCycleType)
}

func TestPayrollService_Compute_ValidationError(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.PeriodEnd = "2024-02-01"

	_, err := f.svc.Compute(context.Background(), req)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_Compute_HasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryBonus, 10000)

	_, err := f.svc.Compute(context.Background(), f.request())
	require.NoError(t, err)

	for _, a := range f.store.Adjustments() {
		assert.False(t, a.Consumed)
	}
	unpaid, err := f.svc.ListUnpaid(context.Background(), payroll.UnpaidFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, unpaid.Total)
	assert.Empty(t, f.store.Payments())
}

func TestPayrollService_ComputeAll(t *testing.T) {
	f := newFixture(t)
	second := f.store.AddEmployee(employee.Employee{
		FullName:      "Beto Ruiz",
		MonthlySalary: decimal.NewFromInt(1500000),
		PayCycle:      string(payroll.CycleBiweekly),
	})
	f.store.AddEmployee(employee.Employee{FullName: "Weekly Only", PayCycle: string(payroll.CycleWeekly)})
	f.store.AddEmployee(employee.Employee{FullName: "Inactive", PayCycle: string(payroll.CycleBiweekly), Status: employee.EmploymentStatusInactive})

	f.checkIn(t, f.emp.ID, daysRange(1, 13)...)
	f.checkIn(t, second.ID, daysRange(1, 13)...)

	resp, err := f.svc.ComputeAll(context.Background(), payroll.ComputeAllRequest{
		CycleType:   string(payroll.CycleBiweekly),
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-15",
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Failures)
	assert.Equal(t, "Ana Torres", resp.Results[0].EmployeeName)
	assert.Equal(t, "Beto Ruiz", resp.Results[1].EmployeeName)
	assert.True(t, resp.TotalNet.Equal(dec("2250000")))
}

func TestPayrollService_ComputeAll_InvalidCycle(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ComputeAll(context.Background(), payroll.ComputeAllRequest{
		CycleType:   "daily",
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-15",
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidCycleType)
}

// ===== SAVE =====

func TestPayrollService_Save_CreatesUnpaidRecord(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 13)...)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 5000)

	resp, err := f.svc.Save(context.Background(), f.request())
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.True(t, resp.NetPay.Equal(dec("1505000")))

	record, err := f.svc.GetRecord(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.False(t, record.Paid)
	assert.Nil(t, record.PaidAt)
	assert.True(t, record.NetPay.Equal(dec("1505000")))

	for _, a := range f.store.Adjustments() {
		assert.False(t, a.Consumed, "save must not consume adjustments")
	}

	unpaid, err := f.svc.ListUnpaid(context.Background(), payroll.UnpaidFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, unpaid.Total)
	assert.True(t, unpaid.TotalNet.Equal(dec("1505000")))
}

func TestPayrollService_GetRecord_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetRecord(context.Background(), "0190a1b2-0000-7000-8000-0000000000ee")
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)

	_, err = f.svc.GetRecord(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

// ===== PAY =====

func TestPayrollService_Pay_Success(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 15)...)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 50000)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryDiscount, 20000)
	other := f.store.AddEmployee(employee.Employee{FullName: "Other", PayCycle: "biweekly"})
	f.addAdjustment(t, other.ID, adjustment.CategoryBonus, 1000)

	id := f.saved(t)
	notes := "Quincena marzo"

	payment, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, id, payment.PayrollRecordID)
	assert.Equal(t, payroll.DefaultPaymentMethod, payment.PaymentMethod)
	assert.Equal(t, "2024-03-01 a 2024-03-15", payment.Period)
	assert.True(t, payment.TotalPaid.Equal(dec("1730000")))
	assert.Equal(t, 2, payment.ConsumedAdjustments)
	assert.Equal(t, &notes, payment.Notes)
	assert.True(t, payment.PaidAt.Equal(fixedNow))

	record, ok := f.store.Record(id)
	require.True(t, ok)
	assert.True(t, record.Paid)
	require.NotNil(t, record.PaymentMethod)
	assert.Equal(t, "Efectivo", *record.PaymentMethod)

	for _, a := range f.store.Adjustments() {
		if a.EmployeeID == f.emp.ID {
			assert.True(t, a.Consumed)
			require.NotNil(t, a.PayrollRecordID)
			assert.Equal(t, id, *a.PayrollRecordID)
			require.NotNil(t, a.ConsumedAt)
		} else {
			assert.False(t, a.Consumed, "other employees' adjustments stay pending")
		}
	}
}

func TestPayrollService_Pay_Twice(t *testing.T) {
	f := newFixture(t)
	id := f.saved(t)

	_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	require.NoError(t, err)

	_, err = f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyPaid)

	assert.Len(t, f.store.Payments(), 1)
}

func TestPayrollService_Pay_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 1000)
	id := f.saved(t)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	require.Len(t, f.store.Payments(), 1)
	assert.Equal(t, 1, f.store.Payments()[0].ConsumedAdjustments)
}

func TestPayrollService_Pay_TwoRecordsSameEmployeeNeverShareAdjustments(t *testing.T) {
	f := newFixture(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 1000)
	first := f.saved(t)
	second := f.saved(t)

	var wg sync.WaitGroup
	for _, id := range []string{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := 0
	for _, p := range f.store.Payments() {
		total += p.ConsumedAdjustments
	}
	assert.Equal(t, 1, total)
}

func TestPayrollService_Pay_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: "0190a1b2-0000-7000-8000-0000000000ee"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
	assert.Empty(t, f.store.Payments())
}

func TestPayrollService_Pay_MalformedIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: "42"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
	assert.Empty(t, f.store.Payments())
}

func TestPayrollService_Pay_RollsBackOnPaymentFailure(t *testing.T) {
	f := newFixture(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryBonus, 5000)
	id := f.saved(t)

	f.store.FailPaymentAppend = errors.New("disk full")
	_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	require.Error(t, err)

	record, ok := f.store.Record(id)
	require.True(t, ok)
	assert.False(t, record.Paid)
	for _, a := range f.store.Adjustments() {
		assert.False(t, a.Consumed)
		assert.Nil(t, a.PayrollRecordID)
	}
	assert.Empty(t, f.store.Payments())

	// The record can still be settled once the fault is gone.
	_, err = f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	require.NoError(t, err)
}

func TestPayrollService_Pay_ConsumesAdjustmentsAddedAfterCompute(t *testing.T) {
	f := newFixture(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 1000)
	id := f.saved(t)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryAdvance, 3000)

	payment, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, 2, payment.ConsumedAdjustments)
	// The snapshot keeps the saved breakdown.
	assert.True(t, payment.Advances.IsZero())

	f.addAdjustment(t, f.emp.ID, adjustment.CategoryBonus, 7000)

	pending := 0
	for _, a := range f.store.Adjustments() {
		if !a.Consumed {
			pending++
			assert.Equal(t, adjustment.CategoryBonus, a.Category)
		}
	}
	assert.Equal(t, 1, pending)

	next, err := f.svc.Compute(context.Background(), f.request())
	require.NoError(t, err)
	assert.True(t, next.Bonuses.Equal(dec("7000")))
	assert.True(t, next.Tips.IsZero())
}

func TestPayrollService_Pay_RecordsOperatorFromToken(t *testing.T) {
	f := newFixture(t)
	id := f.saved(t)

	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := auth.Encode(map[string]interface{}{"operator_id": "cashier-01", "type": "access"})
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), token, nil)

	method := "Transferencia"
	payment, err := f.svc.Pay(ctx, payroll.PayRequest{ID: id, PaymentMethod: &method})
	require.NoError(t, err)

	require.NotNil(t, payment.PaidBy)
	assert.Equal(t, "cashier-01", *payment.PaidBy)
	assert.Equal(t, "Transferencia", payment.PaymentMethod)
}

// ===== PAYMENTS =====

func TestPayrollService_ListPaymentsAndExport(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t, f.emp.ID, daysRange(1, 13)...)
	f.addAdjustment(t, f.emp.ID, adjustment.CategoryTip, 2500)
	id := f.saved(t)
	_, err := f.svc.Pay(context.Background(), payroll.PayRequest{ID: id})
	require.NoError(t, err)

	list, err := f.svc.ListPayments(context.Background(), payroll.PaymentFilter{EmployeeID: &f.emp.ID})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.True(t, list.TotalPaid.Equal(dec("1502500")))

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportPaymentsCSV(context.Background(), payroll.PaymentFilter{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "paid_at,employee,period_start,period_end,days_to_pay,base_pay,tips,bonuses,discounts,advances,total_paid,payment_method,notes", lines[0])
	assert.Contains(t, lines[1], "Ana Torres,2024-03-01,2024-03-15,15,1500000.00,2500.00,0.00,0.00,0.00,1502500.00,Efectivo")
	// 15:30 UTC is 10:30 in Bogotá.
	assert.True(t, strings.HasPrefix(lines[1], "2024-03-16T10:30:00-05:00"))
}
