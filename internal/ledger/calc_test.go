package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApplyDecrease(t *testing.T) {
	// Receivable of 1000, receipt of 500 with 50 discount settles down to 450.
	got := Apply(dec("1000"), dec("500"), dec("50"), DirectionDecrease)
	require.True(t, got.Equal(dec("450")), "got %s", got)
}

func TestApplyIncrease(t *testing.T) {
	got := Apply(dec("450"), dec("100"), dec("0"), DirectionIncrease)
	require.True(t, got.Equal(dec("550")), "got %s", got)
}

func TestApplyRoundsToCents(t *testing.T) {
	got := Apply(dec("10"), dec("0.333"), dec("0"), DirectionIncrease)
	require.True(t, got.Equal(dec("10.33")), "got %s", got)
}

func TestApplyNegativeBalanceAllowed(t *testing.T) {
	// Overpayment drives the balance past zero; the ledger records it as-is.
	got := Apply(dec("100"), dec("150"), dec("0"), DirectionDecrease)
	require.True(t, got.Equal(dec("-50")), "got %s", got)
}

func TestDiscountFromPercent(t *testing.T) {
	got := DiscountFromPercent(dec("500"), dec("10"))
	require.True(t, got.Equal(dec("50")), "got %s", got)

	got = DiscountFromPercent(dec("99.99"), dec("2.5"))
	require.True(t, got.Equal(dec("2.5")), "got %s", got)

	require.True(t, DiscountFromPercent(dec("500"), decimal.Zero).IsZero())
}
