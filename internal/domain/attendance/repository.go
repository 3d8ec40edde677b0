package attendance

import (
	"context"
	"time"
)

// AttendanceRepository reads attendance marks.
type AttendanceRepository interface {
	// CountDistinctCheckinDates counts distinct calendar dates in [start, end]
	// with at least one check_in mark for the employee.
	CountDistinctCheckinDates(ctx context.Context, employeeID string, start, end time.Time) (int, error)
}
