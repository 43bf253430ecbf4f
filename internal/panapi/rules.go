package panapi

import (
	"strings"
)

// ErrorRule maps an API error message to an error type. Match is a
// case-insensitive substring of the manager's message.
type ErrorRule struct {
	Match string
	Type  ErrorType
}

// Matches reports whether the rule applies to an API error message
func (r ErrorRule) Matches(message string) bool {
	if r.Match == "" {
		return false
	}
	return strings.Contains(strings.ToLower(message), strings.ToLower(r.Match))
}

// DefaultRules returns the built-in classification rules
func DefaultRules() []ErrorRule {
	return []ErrorRule{
		{Match: "authentication failed", Type: ErrTypeAuth},
	}
}

// classifyMessage returns the type of the first matching rule, or ErrTypeAPI
func classifyMessage(rules []ErrorRule, message string) ErrorType {
	for _, r := range rules {
		if r.Matches(message) {
			return r.Type
		}
	}
	return ErrTypeAPI
}
