// Package id generates and validates the sortable identifiers used for
// events, organizers, reservations and participants.
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Length is the number of characters in an encoded identifier.
const Length = 26

// New returns a new time-ordered identifier. Identifiers generated by the
// same process within one millisecond are strictly increasing.
func New() string {
	return ulid.Make().String()
}

// IsValid reports whether s has the lexical shape of an identifier:
// exactly 26 characters from the Crockford base-32 alphabet.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(ulid.Encoding, s[i]) < 0 {
			return false
		}
	}
	return true
}
