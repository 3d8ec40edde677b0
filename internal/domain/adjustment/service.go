package adjustment

import (
	"context"

	"github.com/shopspring/decimal"
)

type AdjustmentService interface {
	// Create records an individual adjustment or fans a collective one out to
	// every target employee.
	Create(ctx context.Context, req CreateAdjustmentRequest) (CreateAdjustmentResponse, error)
	PendingTotal(ctx context.Context, employeeID string, category Category) (decimal.Decimal, error)
	ListPending(ctx context.Context, filter PendingFilter) (ListPendingResponse, error)
	ListHistory(ctx context.Context, filter HistoryFilter) (ListHistoryResponse, error)
}
