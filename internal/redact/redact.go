// Package redact strips credentials from commands before they are stored,
// logged or sent anywhere.
package redact

import "regexp"

type rule struct {
	re   *regexp.Regexp
	repl string
}

var rules = []rule{
	{regexp.MustCompile(`ATATT[A-Za-z0-9+/=_-]{20,}`), "[REDACTED_TOKEN]"},
	{regexp.MustCompile(`(Authorization:\s*(?:Basic|Bearer)\s+)\S+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(-u\s+\S+:)\S+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(printf\s+["'])[^"'\s]*[@:][^"']*(["'])`), "${1}[REDACTED]${2}"},
	{regexp.MustCompile(`(?i)("apiToken"\s*:\s*")[^"]+(")`), "${1}[REDACTED]${2}"},
	{regexp.MustCompile(`\b(Bearer\s+)[A-Za-z0-9._~+/=-]{8,}`), "${1}[REDACTED]"},
}

// String returns s with known credential shapes replaced.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Strings applies String to every element in place and returns the slice.
func Strings(ss []string) []string {
	for i := range ss {
		ss[i] = String(ss[i])
	}
	return ss
}
