package identity

import (
	"strings"
)

// Normalize folds a raw display name into merge-key form: lower case,
// trimmed, cosmetic markers stripped, inner whitespace collapsed. The
// site decorates names with rank stars and alt tags; none of that is
// identity.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Trim(s, "*+~ \t")

	// Surrounding brackets appear on placeholder rows like "(box)".
	for len(s) >= 2 {
		open := s[0]
		closing := s[len(s)-1]
		if (open == '(' && closing == ')') || (open == '[' && closing == ']') || (open == '<' && closing == '>') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}

	return strings.Join(strings.Fields(s), " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
