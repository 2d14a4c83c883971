// Package sanitize cleans untrusted text before it is shown in a terminal.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// ansiEscapeRegex matches CSI and OSC escape sequences
	ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)

	// multiSpaceRegex matches runs of whitespace
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// ForPrompt makes picker output safe for a single-line prompt segment:
// escape sequences and control characters are removed, whitespace is
// collapsed and the result is cut to max runes with an ellipsis.
// A max of zero or less disables truncation.
func ForPrompt(s string, max int) string {
	if s == "" {
		return ""
	}

	s = StripANSI(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(multiSpaceRegex.ReplaceAllString(s, " "))

	runes := []rune(s)
	if max > 0 && len(runes) > max {
		if max == 1 {
			return "…"
		}
		return strings.TrimSpace(string(runes[:max-1])) + "…"
	}
	return s
}
