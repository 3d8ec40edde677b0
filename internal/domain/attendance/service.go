package attendance

import (
	"context"
	"time"
)

type AttendanceService interface {
	// WorkedDays returns the number of distinct dates with a check-in, zero when none.
	WorkedDays(ctx context.Context, employeeID string, start, end time.Time) (int, error)
}
