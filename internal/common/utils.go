package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Present reports whether a configured secret is set to something other
// than blank or one of the placeholder values.
func Present(v string, placeholders ...string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, p := range placeholders {
		if v == p {
			return false
		}
	}
	return true
}
