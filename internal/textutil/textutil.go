// Package textutil handles card text. Stored text is kept byte for byte;
// normalization is applied only when comparing.
package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Equal reports whether a and b are the same text under Unicode NFC, so a
// precomposed title matches its decomposed spelling.
func Equal(a, b string) bool {
	if a == b {
		return true
	}
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// Snippet returns the first n characters (runes) of s.
// Truncation never splits a multi-byte character.
func Snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == n {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
