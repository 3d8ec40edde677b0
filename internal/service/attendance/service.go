package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/attendance"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
}

func NewAttendanceService(attendanceRepo attendance.AttendanceRepository) attendance.AttendanceService {
	return &AttendanceServiceImpl{attendanceRepo: attendanceRepo}
}

// WorkedDays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) WorkedDays(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	if start.After(end) {
		return 0, attendance.ErrInvalidDateRange
	}

	days, err := s.attendanceRepo.CountDistinctCheckinDates(ctx, employeeID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to read worked days: %w", err)
	}
	return days, nil
}
