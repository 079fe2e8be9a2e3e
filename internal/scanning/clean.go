package scanning

import (
	"regexp"
	"strings"
)

var (
	reLineBreak  = regexp.MustCompile(`\r\n?`)
	// everything unicode.IsSpace accepts, so TrimSpace and the collapse agree
	reWhitespace = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

// CleanText flattens OCR output into a single line suitable for prompting.
// CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = reLineBreak.ReplaceAllString(s, "\n")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
