package market

import (
	"regexp"
	"strings"
)

// ZeroAddress is the unset account.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 20-byte hex account address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// SameAddress compares two addresses ignoring hex case.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
