package schedule

import "github.com/shopspring/decimal"

// DefaultCoinMultiplier is the number of coins awarded per currency unit contributed.
const DefaultCoinMultiplier = 10

// CoinsForContribution returns round(amount * multiplier), half away from zero.
func CoinsForContribution(amount decimal.Decimal, multiplier int64) int64 {
	if !amount.IsPositive() || multiplier <= 0 {
		return 0
	}
	return amount.Mul(decimal.NewFromInt(multiplier)).Round(0).IntPart()
}
