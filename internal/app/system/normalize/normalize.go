// Package normalize canonicalizes user input before it is validated, stored
// or compared.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an address. Stored and looked-up emails both
// pass through here.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name drops control characters and collapses whitespace runs, so
// "  Ayşe \t Yılmaz " becomes "Ayşe Yılmaz". Case is kept.
func Name(s string) string {
	return strings.Join(strings.Fields(dropControl(s)), " ")
}

// Phone collapses whitespace runs to single spaces.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status canonicalizes an enum value such as "Active ".
func Status(s string) string { return token(s) }

// Role canonicalizes a role such as " Editor".
func Role(s string) string { return token(s) }

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

func token(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
