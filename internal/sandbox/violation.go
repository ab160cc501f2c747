package sandbox

import (
	"fmt"
	"strings"

	"github.com/vaultgate/vaultgate/internal/shell"
)

// ViolationKind identifies why a path usage was denied.
type ViolationKind int

const (
	// OutsideVault means the path resolves beyond the sandbox boundary.
	OutsideVault ViolationKind = iota
	// ExportPathRead means a write-only export path was used in a read position.
	ExportPathRead
)

// PathViolation is a denied path usage.
type PathViolation struct {
	Kind ViolationKind
	Path string // the offending path as written in the command
}

// Reason renders a user-facing denial reason naming the offending path.
func (v *PathViolation) Reason() string {
	switch v.Kind {
	case ExportPathRead:
		return fmt.Sprintf("path %q is in an export directory, which is write-only", v.Path)
	default:
		return fmt.Sprintf("path %q is outside the vault boundary", v.Path)
	}
}

// outputFlags are option flags that take a path argument written by the
// command rather than read from.
var outputFlags = map[string]bool{
	"-o":       true,
	"--output": true,
	"--out":    true,
}

// candidate is a token plausibly denoting a filesystem path.
type candidate struct {
	raw     string
	cleaned string
	write   bool // arose from an output redirect or output flag
}

// FindPathViolation scans a command for path tokens and classifies each
// against the boundary. Candidates come from redirect targets, output-flag
// arguments, and bare path-like tokens, in left-to-right order; the first
// violation wins. Outside paths deny every operation; export paths deny
// reads only.
func FindPathViolation(cmd string, classify ClassifyFunc) *PathViolation {
	if classify == nil || strings.TrimSpace(cmd) == "" {
		return nil
	}
	for _, c := range pathCandidates(cmd) {
		switch classify(c.cleaned) {
		case Outside:
			return &PathViolation{Kind: OutsideVault, Path: c.raw}
		case Export:
			if !c.write {
				return &PathViolation{Kind: ExportPathRead, Path: c.raw}
			}
		}
	}
	return nil
}

// CheckToolPath classifies the direct path argument of a non-bash file tool.
// Write-capable tools (write, edit) may target export directories; read-only
// tools may not. All tools are confined to the boundary.
func CheckToolPath(path string, write bool, classify ClassifyFunc) *PathViolation {
	if classify == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	switch classify(cleanCandidate(path)) {
	case Outside:
		return &PathViolation{Kind: OutsideVault, Path: path}
	case Export:
		if !write {
			return &PathViolation{Kind: ExportPathRead, Path: path}
		}
	}
	return nil
}

// pathCandidates extracts path candidates from every segment of cmd.
func pathCandidates(cmd string) []candidate {
	var out []candidate
	for _, seg := range shell.Segments(cmd) {
		tokens := strings.Fields(seg)
		pendingWrite := false
		pendingRead := false
		for _, tok := range tokens {
			if pendingWrite || pendingRead {
				out = append(out, candidate{raw: tok, cleaned: cleanCandidate(tok), write: pendingWrite})
				pendingWrite, pendingRead = false, false
				continue
			}

			switch {
			case tok == ">" || tok == ">>":
				pendingWrite = true
			case tok == "<":
				pendingRead = true
			case outputFlags[tok]:
				pendingWrite = true
			case strings.HasPrefix(tok, "--output="):
				if p := strings.TrimPrefix(tok, "--output="); p != "" {
					out = append(out, candidate{raw: p, cleaned: cleanCandidate(p), write: true})
				}
			case strings.HasPrefix(tok, "-o") && !strings.HasPrefix(tok, "--") && len(tok) > 2:
				// Attached short form: -opath (gcc, curl style).
				p := tok[2:]
				out = append(out, candidate{raw: p, cleaned: cleanCandidate(p), write: true})
			default:
				if p, write, ok := redirectTarget(tok); ok {
					out = append(out, candidate{raw: p, cleaned: cleanCandidate(p), write: write})
				} else if pathLike(tok) {
					out = append(out, candidate{raw: tok, cleaned: cleanCandidate(tok)})
				}
			}
		}
	}

	// Redirects to the null/stdio devices are shell plumbing, not file access.
	filtered := out[:0]
	for _, c := range out {
		if !devSink(c.cleaned) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// redirectTarget returns the path attached to a redirect token like
// ">out.txt", "2>>log", or "<input".
func redirectTarget(tok string) (path string, write, ok bool) {
	s := strings.TrimLeft(tok, "012")
	switch {
	case strings.HasPrefix(s, ">>"):
		s, write = s[2:], true
	case strings.HasPrefix(s, ">"):
		s, write = s[1:], true
	case strings.HasPrefix(s, "<"):
		s = s[1:]
	default:
		return "", false, false
	}
	// "2>&1" duplicates a descriptor, not a file.
	if s == "" || strings.HasPrefix(s, "&") || strings.HasPrefix(s, "(") {
		return "", false, false
	}
	return s, write, true
}

// devSink reports whether p is one of the always-permitted device paths.
func devSink(p string) bool {
	switch p {
	case "/dev/null", "/dev/stdout", "/dev/stderr", "/dev/stdin":
		return true
	}
	return false
}

// pathLike reports whether tok plausibly denotes a filesystem path: it
// contains a separator or starts with "." or "~".
func pathLike(tok string) bool {
	if strings.HasPrefix(tok, "-") {
		return false
	}
	return strings.ContainsRune(tok, '/') ||
		strings.HasPrefix(tok, ".") ||
		strings.HasPrefix(tok, "~")
}

// cleanCandidate strips surrounding quotes and trailing slashes from a path
// token before classification.
func cleanCandidate(p string) string {
	p = strings.Trim(p, `"'`)
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}
