package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// Money is a monetary amount in integer minor units (cents).
// Storage and arithmetic never touch floating point; decimal strings are
// converted at the presentation boundary only.
type Money int64

// Zero is the zero monetary amount.
const Zero Money = 0

// NewMoneyFromCents creates Money directly from a minor-unit amount.
func NewMoneyFromCents(cents int64) Money {
	return Money(cents)
}

// NewMoneyFromDecimal converts a major-unit decimal amount to cents,
// rounding half up (2.005 becomes 201 cents).
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money(roundHalfUp(d.Shift(2)))
}

// ParseMoney parses a user-entered decimal string (e.g. "12.34") into cents.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// Cents returns the raw minor-unit amount.
func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount as a fixed two-decimal string ("12.34").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m < 0
}

// Add returns the sum of both amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns the difference of both amounts.
func (m Money) Sub(other Money) Money {
	return m - other
}

// Neg returns the amount with the sign reversed.
func (m Money) Neg() Money {
	return -m
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// MulQuantity multiplies a unit price by a (possibly fractional) quantity
// and rounds the result half up to whole cents.
func (m Money) MulQuantity(qty decimal.Decimal) Money {
	return Money(roundHalfUp(qty.Mul(decimal.NewFromInt(int64(m)))))
}

// ApplyPercent returns percent% of the amount, rounded half up to whole
// cents. Used for tax rates: tax = subtotal.ApplyPercent(rate).
func (m Money) ApplyPercent(percent decimal.Decimal) Money {
	return Money(roundHalfUp(decimal.NewFromInt(int64(m)).Mul(percent).Div(decimal.NewFromInt(100))))
}

// roundHalfUp rounds a cents-scaled decimal to a whole integer, half away
// from zero. Amounts in this system are non-negative in practice, so this
// matches the documented round-half-up rule ("0.005" -> 1 cent).
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Value implements driver.Valuer; Money is stored as a plain integer.
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan implements sql.Scanner for database retrieval.
func (m *Money) Scan(value any) error {
	if value == nil {
		*m = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = Money(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("invalid money value %q: %w", v, err)
		}
		*m = Money(d.IntPart())
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}
