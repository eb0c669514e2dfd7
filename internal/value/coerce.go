package value

import (
	"math/big"
	"strings"
)

// CoerceOrZero converts raw attribute input into a non-negative integer.
//
// The longest run of leading ASCII digits (after optional whitespace and an
// optional '+') is parsed; anything after it is ignored, so "12abc" and "12.9"
// both yield 12. Input with no leading digits, or with a leading '-', yields 0.
//
// Postcondition: Returns a non-nil, non-negative integer.
func CoerceOrZero(raw string) *big.Int {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return new(big.Int)
	}

	n, ok := new(big.Int).SetString(s[:end], 10)
	if !ok {
		return new(big.Int)
	}
	return n
}
