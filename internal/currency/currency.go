// Package currency renders balances and amounts for user-facing messages.
package currency

import (
	"fmt"

	"matebot-telegram/internal/config"
)

// Formatter converts integer amounts in the smallest currency unit into
// display strings, e.g. 1234 -> "12.34€" with factor 100 and 2 digits.
type Formatter struct {
	digits int
	factor int64
	symbol string
}

func NewFormatter(cfg config.CurrencyConfig) *Formatter {
	return &Formatter{digits: cfg.Digits, factor: cfg.Factor, symbol: cfg.Symbol}
}

// Format renders an amount including the currency symbol.
func (f *Formatter) Format(amount int64) string {
	v := float64(amount) / float64(f.factor)
	return fmt.Sprintf("%.*f%s", f.digits, v, f.symbol)
}
