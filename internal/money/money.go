package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Currency codes used by wallets, statements and invoices.
const (
	CurrencyUSD = "USD"
	CurrencyLYD = "LYD"
	// CurrencyEUR survives on legacy invoices and payment history rows for
	// display; wallets and the allocator never accept it.
	CurrencyEUR = "EUR"
)

var (
	ErrInvalidRate     = errors.New("invalid_rate")
	ErrInvalidCurrency = errors.New("invalid_currency")
)

// Truncate2 cuts an amount to two decimal places toward zero, never
// rounding. Every stored amount and ledger delta passes through here,
// including amounts produced by exchange-rate division, so replayed
// running totals stay drift-free.
func Truncate2(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

// USDEquivalent converts an LYD amount to USD at rate (LYD per USD).
func USDEquivalent(lyd, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.Sign() <= 0 {
		return decimal.Zero, ErrInvalidRate
	}
	return Truncate2(lyd.Div(rate)), nil
}

// ValidWalletCurrency reports whether code is accepted for wallet
// operations. The set is closed.
func ValidWalletCurrency(code string) bool {
	return code == CurrencyUSD || code == CurrencyLYD
}

// ValidDisplayCurrency additionally admits the legacy EUR code used on
// old invoices and history rows.
func ValidDisplayCurrency(code string) bool {
	return ValidWalletCurrency(code) || code == CurrencyEUR
}
