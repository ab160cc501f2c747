package shell

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ConstructKind identifies a class of dangerous shell construct.
type ConstructKind int

const (
	CommandSubstitution ConstructKind = iota
	BacktickSubstitution
	ProcessSubstitution
	HexEscape
	DangerousBuiltin
)

// String returns the kind name used in audit entries and denial reasons.
func (k ConstructKind) String() string {
	switch k {
	case CommandSubstitution:
		return "command substitution"
	case BacktickSubstitution:
		return "backtick substitution"
	case ProcessSubstitution:
		return "process substitution"
	case HexEscape:
		return "hex/octal escape"
	case DangerousBuiltin:
		return "dangerous builtin"
	default:
		return "unknown"
	}
}

// DangerousConstruct is a flagged unsafe shell pattern. Its presence alone is
// sufficient to deny a command, independent of blocklist and path checks.
type DangerousConstruct struct {
	Kind    ConstructKind
	Literal string // the matched text
	Command string // offending command name, set for DangerousBuiltin
}

// Reason renders a user-facing denial reason naming the construct.
func (c *DangerousConstruct) Reason() string {
	if c.Kind == DangerousBuiltin {
		return fmt.Sprintf("command uses dangerous builtin %q", c.Command)
	}
	return fmt.Sprintf("command contains %s (%q)", c.Kind, c.Literal)
}

// dangerousBuiltins are shell builtins that execute or re-source arbitrary
// code and are never auto-approved as a command name.
var dangerousBuiltins = map[string]bool{
	"eval":   true,
	"exec":   true,
	"source": true,
}

var (
	commandSubstPattern  = regexp.MustCompile(`\$\(`)
	backtickSubstPattern = regexp.MustCompile("`")
	processSubstPattern  = regexp.MustCompile(`[<>]\(`)
	hexEscapePattern     = regexp.MustCompile(`\\x[0-9a-fA-F]{2}|\\0[0-9]{2}`)
)

// FindDangerousConstruct scans the raw (pre-normalization) command for shell
// constructs that could execute arbitrary code or obscure a path. Checks run
// in priority order and the first match wins: command substitution, backtick
// substitution, process substitution, hex/octal escapes, dangerous builtins.
//
// This runs before any path classification because a successful substitution
// could forge an apparently-safe path.
//
// Substitution characters inside quoted heredocs are literal text, not
// executable syntax, so those byte ranges are excluded from the scan.
func FindDangerousConstruct(cmd string) *DangerousConstruct {
	exclude := quotedHeredocRanges(cmd)

	scans := []struct {
		kind ConstructKind
		re   *regexp.Regexp
	}{
		{CommandSubstitution, commandSubstPattern},
		{BacktickSubstitution, backtickSubstPattern},
		{ProcessSubstitution, processSubstPattern},
		{HexEscape, hexEscapePattern},
	}
	for _, scan := range scans {
		if lit, ok := firstMatchOutside(scan.re, cmd, exclude); ok {
			return &DangerousConstruct{Kind: scan.kind, Literal: lit}
		}
	}

	for _, name := range CommandNames(cmd) {
		if dangerousBuiltins[strings.ToLower(name)] {
			return &DangerousConstruct{Kind: DangerousBuiltin, Literal: name, Command: name}
		}
	}

	return nil
}

// firstMatchOutside returns the first match of re in cmd whose start position
// falls outside every excluded range.
func firstMatchOutside(re *regexp.Regexp, cmd string, exclude []byteRange) (string, bool) {
	if len(exclude) == 0 {
		if loc := re.FindStringIndex(cmd); loc != nil {
			return cmd[loc[0]:loc[1]], true
		}
		return "", false
	}
	for _, loc := range re.FindAllStringIndex(cmd, -1) {
		excluded := false
		for _, r := range exclude {
			if loc[0] >= r.start && loc[0] < r.end {
				excluded = true
				break
			}
		}
		if !excluded {
			return cmd[loc[0]:loc[1]], true
		}
	}
	return "", false
}

// byteRange is a half-open range of bytes in a string.
type byteRange struct {
	start, end int
}

// quotedHeredocRanges parses a command and returns byte ranges of heredoc
// content whose delimiter is quoted. Quoted heredocs don't perform shell
// expansion, so backticks and $() inside them are literal text. Commands the
// parser cannot handle yield no ranges, leaving the whole string scannable.
func quotedHeredocRanges(cmd string) []byteRange {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil
	}

	var ranges []byteRange
	syntax.Walk(prog, func(node syntax.Node) bool {
		redir, ok := node.(*syntax.Redirect)
		if !ok {
			return true
		}

		if redir.Op != syntax.Hdoc && redir.Op != syntax.DashHdoc {
			return true
		}

		if redir.Word == nil || len(redir.Word.Parts) == 0 {
			return true
		}

		isQuoted := false
		for _, part := range redir.Word.Parts {
			switch part.(type) {
			case *syntax.SglQuoted, *syntax.DblQuoted:
				isQuoted = true
			}
		}

		if isQuoted && redir.Hdoc != nil {
			start := int(redir.Hdoc.Pos().Offset())
			end := int(redir.Hdoc.End().Offset())
			if start < end && start >= 0 && end <= len(cmd) {
				ranges = append(ranges, byteRange{start: start, end: end})
			}
		}

		return true
	})

	return ranges
}
