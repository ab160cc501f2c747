// Package shell analyzes raw shell command strings: normalization of
// blocklist-evasion artifacts, splitting compound commands into segments,
// command-name extraction, and detection of dangerous shell constructs.
package shell

import "strings"

// Normalize strips common blocklist-evasion artifacts from a raw command.
// Adjacent empty-quote pairs anywhere in the string are removed (r''m → rm),
// and backslashes are removed from the first token only (r\m → rm). Backslashes
// after the first token are preserved since they may be legitimate escaping
// inside path arguments. Normalize is idempotent and never fails.
func Normalize(cmd string) string {
	// Backslash stripping can expose a fresh empty-quote pair (\'\' -> ''),
	// so the two rewrites loop to a joint fixed point.
	for {
		next := stripCommandBackslashes(stripEmptyQuotePairs(cmd))
		if next == cmd {
			return cmd
		}
		cmd = next
	}
}

// stripEmptyQuotePairs removes adjacent empty-quote pairs ('', "", ``) until
// no more remain. Removal can create new adjacent pairs ('""' → ''), so this
// loops to a fixed point to keep Normalize idempotent.
func stripEmptyQuotePairs(cmd string) string {
	for {
		next := strings.ReplaceAll(cmd, `''`, "")
		next = strings.ReplaceAll(next, `""`, "")
		next = strings.ReplaceAll(next, "``", "")
		if next == cmd {
			return cmd
		}
		cmd = next
	}
}

// stripCommandBackslashes removes backslashes from the first whitespace-delimited
// token, where they can only serve to split the command name.
func stripCommandBackslashes(cmd string) string {
	start := 0
	for start < len(cmd) && isSpace(cmd[start]) {
		start++
	}
	end := start
	for end < len(cmd) && !isSpace(cmd[end]) {
		end++
	}
	if !strings.ContainsRune(cmd[start:end], '\\') {
		return cmd
	}
	return cmd[:start] + strings.ReplaceAll(cmd[start:end], `\`, "") + cmd[end:]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
