// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Amount is a signed fixed-point currency value with four fractional
// digits, stored as an integer count of 1/10000 units. All balance
// arithmetic in the engine happens on this type, so results are exact
// for any input the parser accepts.
type Amount int64

// AmountScale is the number of ticks per whole currency unit.
const AmountScale = 10_000

const (
	// MaxAmount and MinAmount bound the representable range. Arithmetic
	// saturates at these values instead of wrapping.
	MaxAmount = Amount(math.MaxInt64)
	MinAmount = Amount(math.MinInt64)

	// maxFractionalDigits is the precision accepted on input. Rows with
	// more fractional digits are rejected, not rounded.
	maxFractionalDigits = 4
)

var (
	ErrAmountSyntax    = errors.New("malformed amount")
	ErrAmountNegative  = errors.New("negative amount")
	ErrAmountPrecision = errors.New("amount exceeds 4 fractional digits")
	ErrAmountRange     = errors.New("amount out of range")
)

// ParseAmount parses a non-negative decimal with at most four fractional
// digits into an Amount. The caller is expected to have trimmed
// surrounding whitespace already.
func ParseAmount(s string) (Amount, error) {
	if len(s) == 0 {
		return 0, ErrAmountSyntax
	}
	if s[0] == '-' {
		return 0, ErrAmountNegative
	}
	if s[0] == '+' {
		return 0, ErrAmountSyntax
	}

	intPart := s
	var fracPart string
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, fracPart = s[:i], s[i+1:]
			break
		}
	}
	if len(intPart) == 0 && len(fracPart) == 0 {
		return 0, ErrAmountSyntax
	}
	if len(fracPart) > maxFractionalDigits {
		// Trailing zeros beyond four digits are still precision the
		// input claims to have; reject rather than guess.
		return 0, ErrAmountPrecision
	}

	var whole uint64
	if len(intPart) > 0 {
		var err error
		whole, err = strconv.ParseUint(intPart, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, ErrAmountRange
			}
			return 0, ErrAmountSyntax
		}
	}
	if whole > math.MaxInt64/AmountScale {
		return 0, ErrAmountRange
	}
	ticks := int64(whole) * AmountScale

	if len(fracPart) > 0 {
		frac, err := strconv.ParseUint(fracPart, 10, 32)
		if err != nil {
			return 0, ErrAmountSyntax
		}
		for i := len(fracPart); i < maxFractionalDigits; i++ {
			frac *= 10
		}
		if ticks > math.MaxInt64-int64(frac) {
			return 0, ErrAmountRange
		}
		ticks += int64(frac)
	}
	return Amount(ticks), nil
}

// Add returns a+b, saturating at the signed range.
func (a Amount) Add(b Amount) Amount {
	sum := a + b
	// Overflow only happens when both operands share a sign and the
	// result flipped it.
	if a > 0 && b > 0 && sum < 0 {
		return MaxAmount
	}
	if a < 0 && b < 0 && sum >= 0 {
		return MinAmount
	}
	return sum
}

// Sub returns a-b, saturating at the signed range.
func (a Amount) Sub(b Amount) Amount {
	if b == MinAmount {
		if a >= 0 {
			return MaxAmount
		}
		return a.Add(MaxAmount).Add(1)
	}
	return a.Add(-b)
}

// String formats the amount with exactly four fractional digits and no
// thousands separators, e.g. "12.0000" or "-0.0001".
func (a Amount) String() string {
	ticks := int64(a)
	neg := ticks < 0
	var whole, frac uint64
	if neg {
		// Two's-complement negation; correct even for MinAmount.
		u := uint64(-ticks)
		whole, frac = u/AmountScale, u%AmountScale
	} else {
		whole, frac = uint64(ticks)/AmountScale, uint64(ticks)%AmountScale
	}
	if neg {
		return fmt.Sprintf("-%d.%04d", whole, frac)
	}
	return fmt.Sprintf("%d.%04d", whole, frac)
}
