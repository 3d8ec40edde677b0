package adjustment

import (
	"github.com/shopspring/decimal"
)

// SplitAmount divides amount into n parts at cent precision using largest
// remainder: every part gets floor(amount/n) and the leftover cents go one each
// to the first parts, so the parts always sum to amount.
func SplitAmount(amount decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, ErrNothingToSplit
	}

	cents := amount.Shift(2).Truncate(0)
	count := decimal.NewFromInt(int64(n))
	base := cents.Div(count).Truncate(0)
	if base.IsZero() {
		return nil, ErrAmountTooSmall
	}
	remainder := cents.Sub(base.Mul(count)).IntPart()

	parts := make([]decimal.Decimal, n)
	for i := range parts {
		share := base
		if int64(i) < remainder {
			share = share.Add(decimal.NewFromInt(1))
		}
		parts[i] = share.Shift(-2)
	}
	return parts, nil
}
