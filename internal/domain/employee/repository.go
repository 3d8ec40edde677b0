package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// ListActive returns active employees ordered by name.
	ListActive(ctx context.Context) ([]Employee, error)
}
