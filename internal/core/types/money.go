// Package types holds value types shared by the domain and the API.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Receipt prices and totals never pass
// through float64.
type Money = decimal.Decimal

// MustMoney parses s and panics on malformed input. For literals and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

func Zero() Money {
	return decimal.Zero
}

// LineAmount is price x quantity for one receipt line.
func LineAmount(price Money, quantity int64) Money {
	return price.Mul(decimal.NewFromInt(quantity))
}

