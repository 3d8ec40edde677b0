package attendance

import "errors"

var (
	ErrInvalidDateRange = errors.New("period start must not be after period end")
)
