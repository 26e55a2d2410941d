package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSummaryLen is the longest issue summary extracted from a prompt.
const MaxSummaryLen = 80

var (
	sentenceEnd = regexp.MustCompile(`[.!?\n]`)
	noisePrefix = regexp.MustCompile(`(?i)^(?:please\s+|can you\s+|could you\s+|i need to\s+|i need you to\s+|i want to\s+|help me\s+|let's\s+|let me\s+)+`)
)

// ExtractSummary turns a free-form request into an issue summary: the first
// sentence without filler openers, capitalised and cut to MaxSummaryLen runes.
func ExtractSummary(prompt string) string {
	s := strings.TrimSpace(prompt)
	if loc := sentenceEnd.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(noisePrefix.ReplaceAllString(strings.TrimSpace(s)+" ", ""))
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if utf8.RuneCountInString(s) > MaxSummaryLen {
		s = strings.TrimSpace(string([]rune(s)[:MaxSummaryLen]))
	}
	return s
}
