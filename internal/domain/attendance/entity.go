package attendance

import (
	"time"
)

// Mark is a single clock event. Only check-ins count toward worked days.
type Mark struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Kind       MarkKind
	RecordedAt time.Time
}

type MarkKind string

const (
	MarkKindCheckIn  MarkKind = "check_in"
	MarkKindCheckOut MarkKind = "check_out"
)
