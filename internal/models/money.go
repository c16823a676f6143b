package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a BRL amount kept with two fractional digits. It marshals to
// JSON as a quoted fixed-point string ("18.90") and accepts either a
// string or a number on input.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MoneyFromString parses a decimal amount such as "18.90".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// MustMoney is MoneyFromString for literals.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

func (m Money) Add(other Money) Money {
	return NewMoney(m.Decimal.Add(other.Decimal))
}

func (m Money) MulInt(n int) Money {
	return NewMoney(m.Decimal.Mul(decimal.NewFromInt(int64(n))))
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Round(2).Equal(other.Decimal.Round(2))
}

// HasSubCents reports whether the amount carries digits beyond the cent.
func (m Money) HasSubCents() bool {
	return !m.Decimal.Equal(m.Decimal.Round(2))
}

func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

func (m Money) Float64() float64 {
	f, _ := m.Decimal.Round(2).Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}
