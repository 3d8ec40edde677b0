package adjustment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AdjustmentRepository interface {
	CreateBatch(ctx context.Context, adjustments []*Adjustment) error

	// SumPending sums unconsumed amounts of one category across all dates.
	SumPending(ctx context.Context, employeeID string, category Category) (decimal.Decimal, error)
	// SumPendingByCategory returns every category total in one read.
	SumPendingByCategory(ctx context.Context, employeeID string) (Totals, error)

	// MarkConsumed flips every unconsumed adjustment of the employee to consumed,
	// stamps recordID on it and returns the affected ids. Rows consumed by a
	// concurrent settlement are skipped.
	MarkConsumed(ctx context.Context, employeeID, recordID string, at time.Time) ([]string, error)

	ListPending(ctx context.Context, filter PendingFilter) ([]Adjustment, error)
	// ListHistory returns pending and consumed rows, newest date first, at most
	// filter.Limit of them.
	ListHistory(ctx context.Context, filter HistoryFilter) ([]Adjustment, error)
}
