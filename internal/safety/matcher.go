// Package safety gates destructive commands proposed by the agent behind
// explicit user confirmation. Matching is an advisory keyword heuristic, not
// semantic analysis: false positives are resolved by the user confirming,
// false negatives are a documented residual risk.
package safety

import "strings"

// Matcher is a pure predicate over a configured keyword list.
type Matcher struct {
	keywords []string
}

// NewMatcher creates a matcher. Keywords are matched case-insensitively as
// substrings of the proposed command.
func NewMatcher(keywords []string) *Matcher {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Matcher{keywords: lowered}
}

// Match reports whether command looks destructive, and which keyword matched.
func (m *Matcher) Match(command string) (bool, string) {
	lowered := strings.ToLower(command)
	for _, kw := range m.keywords {
		if strings.Contains(lowered, kw) {
			return true, kw
		}
	}
	return false, ""
}
