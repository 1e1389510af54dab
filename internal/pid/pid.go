// Package pid implements the department's PID derivation convention.
//
// A device's secondary identifier (PID) is issued by the external records
// authority and, by convention, is the device's serial number with the first
// four characters (the vendor/batch code) replaced by the fixed network
// domain code "Z100". The constants below are business rules shared with the
// paper registration process; changing them would desynchronize the two.
package pid

import (
	"strings"
	"unicode"
)

const (
	// DomainPrefix replaces the leading vendor/batch code of a serial number.
	DomainPrefix = "Z100"
	// vendorCodeLen is the number of leading serial characters dropped.
	vendorCodeLen = 4
	// minSerialLen is the shortest serial a PID can be derived from.
	minSerialLen = 5
)

// ExpectedFromSerial computes the PID a device should carry for the given
// serial number. Serials shorter than five characters yield "" (no
// expectation can be derived); this is a defined result, not an error.
func ExpectedFromSerial(serial string) string {
	if len(serial) < minSerialLen {
		return ""
	}
	return DomainPrefix + serial[vendorCodeLen:]
}

// IsMismatch reports whether the stored PID deviates from the PID derived
// from the serial number. Absence is not evidence of mismatch: if either
// value is empty the result is false. Comparison is case-sensitive; both
// values are stored uppercase by convention.
func IsMismatch(serial, pidNumber string) bool {
	if serial == "" || pidNumber == "" {
		return false
	}
	return ExpectedFromSerial(serial) != pidNumber
}

// Normalize canonicalizes a raw identifier token: surrounding whitespace is
// trimmed, every rune that is not a letter, digit, hyphen, or underscore is
// removed, and the result is uppercased. The same rule is applied to pasted
// operator input and to the inventory index, so the two sides always agree.
func Normalize(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range strings.TrimSpace(token) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
