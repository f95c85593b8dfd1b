package rules

import "encoding/json"

// MatchResult is the immutable outcome of Evaluate. Accessors return
// copies, so a result cannot be altered after construction.
type MatchResult struct {
	passed []string
	failed []string
}

// NewMatchResult builds a result from explicit reason lists. It is meant
// for collaborators and tests that need a result without running rules.
func NewMatchResult(passed, failed []string) MatchResult {
	return MatchResult{
		passed: append([]string(nil), passed...),
		failed: append([]string(nil), failed...),
	}
}

// IsMatch reports whether no rule failed.
func (m MatchResult) IsMatch() bool { return len(m.failed) == 0 }

func (m MatchResult) Passed() []string { return append([]string(nil), m.passed...) }

func (m MatchResult) Failed() []string { return append([]string(nil), m.failed...) }

func (m MatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IsMatch bool     `json:"is_match"`
		Passed  []string `json:"passed_reasons"`
		Failed  []string `json:"failed_reasons"`
	}{m.IsMatch(), nonNil(m.passed), nonNil(m.failed)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
