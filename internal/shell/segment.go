package shell

import "strings"

// DefaultWrappers are prefix commands that never act as the command itself.
// The first token after any run of wrappers (and env assignments) is the
// real command. The set can be extended through configuration.
var DefaultWrappers = []string{"sudo", "env", "command", "nohup", "nice", "time"}

// Segments splits a command into its pipeline/chain segments, cutting on
// ||, &&, |, ;, & and newlines. Two-character operators are matched before
// single-character ones so "a && b" does not read as a background job.
// Empty segments from consecutive separators are dropped.
//
// The scan is operator/whitespace based and deliberately not quote-aware:
// a separator inside quotes still splits. That makes the check strictly more
// conservative for command extraction, but a path containing an escaped
// separator can evade segmentation (see the package tests).
func Segments(cmd string) []string {
	var segments []string
	start := 0
	flush := func(end int) {
		if s := strings.TrimSpace(cmd[start:end]); s != "" {
			segments = append(segments, s)
		}
	}
	i := 0
	for i < len(cmd) {
		if i+1 < len(cmd) && (cmd[i:i+2] == "||" || cmd[i:i+2] == "&&") {
			flush(i)
			i += 2
			start = i
			continue
		}
		switch cmd[i] {
		case '|', ';', '&', '\n':
			flush(i)
			i++
			start = i
		default:
			i++
		}
	}
	flush(len(cmd))
	return segments
}

// CommandNames returns the command name of every segment of cmd, using the
// default wrapper set. Names are basenames: "/usr/bin/rm" and "r\m" (after
// normalization) both report as "rm".
func CommandNames(cmd string) []string {
	return CommandNamesWith(cmd, nil)
}

// CommandNamesWith is CommandNames with extra wrapper commands beyond
// DefaultWrappers.
func CommandNamesWith(cmd string, extraWrappers []string) []string {
	wrappers := make(map[string]bool, len(DefaultWrappers)+len(extraWrappers))
	for _, w := range DefaultWrappers {
		wrappers[w] = true
	}
	for _, w := range extraWrappers {
		wrappers[w] = true
	}

	var names []string
	for _, seg := range Segments(cmd) {
		if name := commandToken(seg, wrappers); name != "" {
			names = append(names, Basename(name))
		}
	}
	return names
}

// commandToken walks a segment's tokens past wrapper commands and leading
// VAR=value assignments and returns the first real command token.
func commandToken(segment string, wrappers map[string]bool) string {
	for _, tok := range strings.Fields(segment) {
		if wrappers[Basename(tok)] {
			continue
		}
		if isAssignment(tok) {
			continue
		}
		return tok
	}
	return ""
}

// isAssignment reports whether tok is a shell variable assignment (VAR=value),
// the form that prefixes commands under env and bare invocations alike.
func isAssignment(tok string) bool {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return false
	}
	for i := 0; i < eq; i++ {
		c := tok[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// Basename strips any path prefix from a command token:
// "/usr/bin/rm" → "rm", "./script.sh" → "script.sh".
func Basename(tok string) string {
	if i := strings.LastIndexByte(tok, '/'); i >= 0 {
		return tok[i+1:]
	}
	return tok
}
