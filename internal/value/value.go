// Package value converts equipment attribute vectors into mint costs and
// converts amounts between smallest-unit integers and decimal display strings.
//
// All arithmetic is performed with math/big; no value ever passes through a
// floating-point or fixed-width intermediate.
package value

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// AttributeCount is the number of stats carried by every piece of equipment.
const AttributeCount = 12

// EtherDecimals is the number of decimal places of the native currency unit.
const EtherDecimals uint = 18

// coefficients are the per-attribute price weights, in attribute index order.
// They must match the marketplace contract's calculateTotalValue exactly.
var coefficients = [AttributeCount]int64{35, 22, 25, 20, 40, 15, 30, 30, 10, 12, 50, 18}

// MaxDecimals is the largest scale accepted by the conversions. 10^77 is the
// largest power of ten below 2^256.
const MaxDecimals uint = 77

// ErrDecimals is returned when decimals exceeds MaxDecimals.
var ErrDecimals = fmt.Errorf("decimals must not exceed %d", MaxDecimals)

// Coefficients returns a copy of the price weights in attribute index order.
func Coefficients() [AttributeCount]int64 {
	return coefficients
}

// Coefficient returns the price weight at index i, or 0 when i is out of range.
func Coefficient(i int) int64 {
	if i < 0 || i >= AttributeCount {
		return 0
	}
	return coefficients[i]
}

// AttributeVector holds the twelve stats of one piece of equipment.
// A nil element reads as zero.
type AttributeVector [AttributeCount]*big.Int

// ErrAttributeCount is returned when a raw attribute list is not exactly
// AttributeCount entries long.
var ErrAttributeCount = fmt.Errorf("attribute list must have exactly %d entries", AttributeCount)

// ErrNegativeAmount is returned when a negative amount is formatted.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ErrFormat is the sentinel matched by every *FormatError.
var ErrFormat = errors.New("malformed decimal amount")

// FormatError describes a display string that ToSmallestUnit could not parse.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed decimal amount %q: %s", e.Input, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewAttributeVector builds a vector from fixed-width values.
func NewAttributeVector(values [AttributeCount]uint64) AttributeVector {
	var v AttributeVector
	for i, n := range values {
		v[i] = new(big.Int).SetUint64(n)
	}
	return v
}

// At returns the value at index i, reading nil as zero.
//
// Precondition: 0 <= i < AttributeCount.
// Postcondition: The returned value is a copy; mutating it does not affect v.
func (v AttributeVector) At(i int) *big.Int {
	if v[i] == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v[i])
}

// ParseAttributes coerces raw attribute input into an AttributeVector.
//
// Precondition: raw has exactly AttributeCount entries.
// Postcondition: Returns a vector whose every element is >= 0, or ErrAttributeCount.
// Individual entries never cause an error; see CoerceOrZero.
func ParseAttributes(raw []string) (AttributeVector, error) {
	var v AttributeVector
	if len(raw) != AttributeCount {
		return v, fmt.Errorf("%w: got %d", ErrAttributeCount, len(raw))
	}
	for i, s := range raw {
		v[i] = CoerceOrZero(s)
	}
	return v, nil
}

// CostOf returns the mint cost of v in the smallest currency unit: the dot
// product of v with the price weights. Negative elements count as zero.
//
// Postcondition: Returns a non-nil, non-negative integer.
func CostOf(v AttributeVector) *big.Int {
	total := new(big.Int)
	term := new(big.Int)
	for i, c := range coefficients {
		a := v[i]
		if a == nil || a.Sign() <= 0 {
			continue
		}
		term.Mul(a, big.NewInt(c))
		total.Add(total, term)
	}
	return total
}

// ToDisplayString renders amount, given in the smallest unit, as a decimal
// string scaled by 10^decimals. Trailing fractional zeros are stripped and
// the decimal point is omitted when nothing remains after it. A nil amount
// reads as zero.
//
// Postcondition: Returns ErrNegativeAmount if amount < 0 and ErrDecimals if
// decimals > MaxDecimals.
func ToDisplayString(amount *big.Int, decimals uint) (string, error) {
	if decimals > MaxDecimals {
		return "", fmt.Errorf("%w: got %d", ErrDecimals, decimals)
	}
	if amount == nil {
		return "0", nil
	}
	if amount.Sign() < 0 {
		return "", fmt.Errorf("formatting %s: %w", amount.String(), ErrNegativeAmount)
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	whole, frac := new(big.Int).QuoRem(amount, pow10(decimals), new(big.Int))
	fracStr := frac.String()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return whole.String(), nil
	}
	return whole.String() + "." + fracStr, nil
}

// ToSmallestUnit parses a decimal display string into an integer amount of
// the smallest unit. Fractional digits beyond decimals are truncated, never
// rounded: "1.0000000000000000001" at 18 decimals yields 10^18.
//
// Precondition: display matches `digits` or `digits.digits`; the integer part
// may be empty when a fraction follows (".5").
// Postcondition: Returns a non-negative integer, a *FormatError, or
// ErrDecimals if decimals > MaxDecimals.
func ToSmallestUnit(display string, decimals uint) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: got %d", ErrDecimals, decimals)
	}
	s := strings.TrimSpace(display)
	if s == "" {
		return nil, &FormatError{Input: display, Reason: "empty"}
	}

	integer, fraction, _ := strings.Cut(s, ".")
	if strings.Contains(fraction, ".") {
		return nil, &FormatError{Input: display, Reason: "more than one decimal point"}
	}
	if integer == "" && fraction == "" {
		return nil, &FormatError{Input: display, Reason: "no digits"}
	}
	if !isDigits(integer) || !isDigits(fraction) {
		return nil, &FormatError{Input: display, Reason: "non-digit character"}
	}

	if uint(len(fraction)) > decimals {
		fraction = fraction[:decimals]
	}
	digits := integer + fraction + strings.Repeat("0", int(decimals)-len(fraction))
	if digits == "" {
		return new(big.Int), nil
	}

	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &FormatError{Input: display, Reason: "not an integer"}
	}
	return amount, nil
}

// FormatEther is ToDisplayString at EtherDecimals.
func FormatEther(wei *big.Int) (string, error) {
	return ToDisplayString(wei, EtherDecimals)
}

// ParseEther is ToSmallestUnit at EtherDecimals.
func ParseEther(ether string) (*big.Int, error) {
	return ToSmallestUnit(ether, EtherDecimals)
}

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
