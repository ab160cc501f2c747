// Package blocklist matches commands against user-authored block patterns.
// Patterns are regex-first with a substring fallback: an invalid regex is
// never rejected, only degraded, so a typo in settings can't disable the
// check or crash the hook.
package blocklist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vaultgate/vaultgate/internal/shell"
)

// simplePattern matches patterns that are a single plain command word.
// These get implicit word-boundary wrapping so "rm" cannot match inside
// "format".
var simplePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Rule is a compiled blocklist pattern. The regex-or-fallback decision is
// made once at load time: Regex is nil when the pattern failed to compile,
// in which case matching falls back to a case-insensitive substring check.
type Rule struct {
	Raw    string
	Simple bool
	Regex  *regexp.Regexp
}

// Compile builds a Rule from a user-authored pattern. Simple command words
// are wrapped in \b assertions unless the user already supplied one; complex
// patterns are used as-is and rely on their own structure for boundaries.
func Compile(pattern string) Rule {
	rule := Rule{Raw: pattern}

	expr := pattern
	if simplePattern.MatchString(pattern) {
		rule.Simple = true
		if !strings.Contains(pattern, `\b`) {
			expr = `\b` + regexp.QuoteMeta(pattern) + `\b`
		}
	}

	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		// Substring fallback; see Validate for the settings-time warning.
		return rule
	}
	rule.Regex = re
	return rule
}

// CompileAll compiles every pattern in order.
func CompileAll(patterns []string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		rules = append(rules, Compile(p))
	}
	return rules
}

// matches applies the rule to a normalized command.
func (r Rule) matches(cmd string) bool {
	if r.Regex != nil {
		return r.Regex.MatchString(cmd)
	}
	return strings.Contains(strings.ToLower(cmd), strings.ToLower(r.Raw))
}

// Match describes which pattern blocked a command.
type Match struct {
	Pattern string
	// ByName is true when the pattern matched an extracted command name
	// exactly rather than the command text.
	ByName bool
}

// Reason renders a user-facing denial reason naming the pattern.
func (m *Match) Reason() string {
	if m.ByName {
		return fmt.Sprintf("command %q is on the blocklist", m.Pattern)
	}
	return fmt.Sprintf("command matches blocklist pattern %q", m.Pattern)
}

// Find evaluates a command against the blocklist. A disabled blocklist or an
// empty command matches nothing. The command is normalized first; each
// pattern is tried as an exact case-insensitive match against the extracted
// command names, then against the whole normalized command. extraWrappers
// extends the wrapper set used for command-name extraction.
func Find(cmd string, rules []Rule, enabled bool, extraWrappers ...string) *Match {
	if !enabled || strings.TrimSpace(cmd) == "" || len(rules) == 0 {
		return nil
	}

	normalized := shell.Normalize(cmd)
	names := shell.CommandNamesWith(normalized, extraWrappers)

	for _, rule := range rules {
		for _, name := range names {
			if strings.EqualFold(name, rule.Raw) {
				return &Match{Pattern: rule.Raw, ByName: true}
			}
		}
		if rule.matches(normalized) {
			return &Match{Pattern: rule.Raw}
		}
	}
	return nil
}

// IsBlocked reports whether a command matches any blocklist pattern.
func IsBlocked(cmd string, rules []Rule, enabled bool, extraWrappers ...string) bool {
	return Find(cmd, rules, enabled, extraWrappers...) != nil
}

// Validate reports whether a pattern is usable as a regex. The returned
// warning is advisory: an invalid pattern still works via substring matching.
func Validate(pattern string) (warning string) {
	if simplePattern.MatchString(pattern) {
		return ""
	}
	if _, err := regexp.Compile(`(?i)` + pattern); err != nil {
		return fmt.Sprintf("pattern %q is not a valid regex and will fall back to substring matching: %v", pattern, err)
	}
	return ""
}
