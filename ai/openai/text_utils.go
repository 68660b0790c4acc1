package openai

import "strings"

// normalizeQuery collapses runs of whitespace into single spaces and trims
// the result. Punctuation is left alone so model numbers survive intact.
func normalizeQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
