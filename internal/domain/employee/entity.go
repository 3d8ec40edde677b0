package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read-only roster view the payroll engine works from.
type Employee struct {
	ID            string
	FullName      string
	MonthlySalary decimal.Decimal
	PayCycle      string
	Status        EmploymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

func (e Employee) IsActive() bool {
	return e.Status == EmploymentStatusActive
}
