package adjustment

import "errors"

var (
	ErrInvalidCategory = errors.New("invalid adjustment category")
	ErrNothingToSplit  = errors.New("split requires at least one recipient")
	ErrAmountTooSmall  = errors.New("amount is too small to split among recipients")
)
