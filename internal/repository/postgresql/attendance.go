package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// CountDistinctCheckinDates implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CountDistinctCheckinDates(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(DISTINCT mark_date)
		FROM attendance_marks
		WHERE employee_id = $1
			AND kind = $2
			AND mark_date BETWEEN $3::date AND $4::date
	`

	var count int
	err := q.QueryRow(ctx, query,
		employeeID, attendance.MarkKindCheckIn,
		start.Format("2006-01-02"), end.Format("2006-01-02"),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count check-in dates: %w", err)
	}

	return count, nil
}
