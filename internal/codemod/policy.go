package codemod

import "strings"

// Substitution replaces every occurrence of Old with New.
type Substitution struct {
	Old, New string
}

// Policy is an ordered list of substitutions. Order matters: put whole
// tokens such as "lambda_solid" before the generic "solid".
type Policy []Substitution

// Apply runs every substitution over s in order.
func (p Policy) Apply(s string) string {
	for _, sub := range p {
		s = strings.ReplaceAll(s, sub.Old, sub.New)
	}
	return s
}

// Mentions reports whether s contains any of the given fragments.
func Mentions(s string, fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
