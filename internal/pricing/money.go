package pricing

import (
	"github.com/shopspring/decimal"
)

// Money is a currency amount. It scans from and writes to SQL like a
// decimal.Decimal and renders in JSON as a number with two decimals.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MustMoney parses s and panics on malformed input; meant for constants and tests.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

// String renders the amount rounded to cents.
func (m Money) String() string { return m.StringFixed(2) }

// Rate is a fraction such as a tax rate. It renders in JSON as a plain
// number without fixed decimals (0.19, 0.07, 0).
type Rate struct {
	decimal.Decimal
}

func NewRate(d decimal.Decimal) Rate { return Rate{Decimal: d} }

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.Decimal.String()), nil
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	return r.Decimal.UnmarshalJSON(b)
}
