// Package model defines the core data structures for the apflow engine.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point monetary amount in cents with an explicit
// absent state. A zero amount and an absent amount are never the same
// thing: reconciliation rules need to distinguish "the invoice has no
// tax line" from "the tax is 0.00".
type Money struct {
	Cents int64
	Valid bool
}

// MoneyFromCents returns a present Money holding the given cents.
func MoneyFromCents(cents int64) Money {
	return Money{Cents: cents, Valid: true}
}

// MoneyFromFloat rounds a float value to cents.
func MoneyFromFloat(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100)), Valid: true}
}

// ParseMoney parses a cleaned numeric string ("1234.56", "-50") into a
// Money. Unparsable or empty input yields the absent value, not zero.
func ParseMoney(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Money{}
	}
	return MoneyFromFloat(v)
}

// String renders the amount as a 2-decimal numeric string, or "" when
// absent. Negative amounts carry a leading minus.
func (m Money) String() string {
	if !m.Valid {
		return ""
	}
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Float64 returns the amount in dollars. Absent values return 0.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if !m.Valid || m.Cents >= 0 {
		return m
	}
	return Money{Cents: -m.Cents, Valid: true}
}

// IsNegative reports whether a present amount is below zero.
func (m Money) IsNegative() bool {
	return m.Valid && m.Cents < 0
}

// IsPositive reports whether a present amount is above zero.
func (m Money) IsPositive() bool {
	return m.Valid && m.Cents > 0
}

// Add returns the sum of two amounts; absent if either side is absent.
func (m Money) Add(o Money) Money {
	if !m.Valid || !o.Valid {
		return Money{}
	}
	return MoneyFromCents(m.Cents + o.Cents)
}

// Sub returns the difference of two amounts; absent if either side is
// absent.
func (m Money) Sub(o Money) Money {
	if !m.Valid || !o.Valid {
		return Money{}
	}
	return MoneyFromCents(m.Cents - o.Cents)
}

// Equal reports whether two amounts are both present and identical.
func (m Money) Equal(o Money) bool {
	return m.Valid && o.Valid && m.Cents == o.Cents
}
