package employee

import (
	"context"
)

// EmployeeService exposes the roster read model
type EmployeeService interface {
	ListActive(ctx context.Context) (ListEmployeeResponse, error)
}
