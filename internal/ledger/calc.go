package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Apply computes the balance resulting from posting amount+discount in the
// given direction. All stored balances are rounded to 2 decimal places.
func Apply(prev, amount, discount decimal.Decimal, dir Direction) decimal.Decimal {
	delta := amount.Add(discount)
	if dir == DirectionDecrease {
		return prev.Sub(delta).Round(2)
	}
	return prev.Add(delta).Round(2)
}

// DiscountFromPercent derives a discount amount from a percentage of the
// transaction amount, rounded to 2 decimal places.
func DiscountFromPercent(amount, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(percent).Div(hundred).Round(2)
}
