// Package hook implements the pre-execution policy pipeline for vaultgate:
// decoding tool invocations, sequencing the construct, path, blocklist and
// approval checks, and rendering a single verdict.
package hook

import (
	"encoding/json"
	"fmt"
)

// Tool names with a dedicated pipeline.
const ToolNameBash = "Bash"

// fileTools maps non-bash file tools to their write intent. Write-capable
// tools may target export directories; read-only tools may not.
var fileTools = map[string]bool{
	"Read":         false,
	"Glob":         false,
	"Grep":         false,
	"Write":        true,
	"Edit":         true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// Kind discriminates the invocation union.
type Kind int

const (
	// OtherInvocation is any tool without a command or file path to check.
	OtherInvocation Kind = iota
	// BashInvocation carries a shell command.
	BashInvocation
	// FileInvocation carries a direct file path argument.
	FileInvocation
)

// Invocation is a tool request validated once at the boundary. Exactly one
// of Command (BashInvocation) and Path (FileInvocation) is meaningful.
type Invocation struct {
	Kind    Kind
	Tool    string
	Command string
	Path    string
	Write   bool // write intent, FileInvocation only

	SessionID string
	ToolUseID string
	Cwd       string
}

// rawInput mirrors the hook JSON. tool_input fields are decoded as any so a
// malformed field degrades to "nothing to check" instead of an error.
type rawInput struct {
	SessionID     string         `json:"session_id"`
	Cwd           string         `json:"cwd"`
	HookEventName string         `json:"hook_event_name"`
	ToolName      string         `json:"tool_name"`
	ToolInput     map[string]any `json:"tool_input"`
	ToolUseID     string         `json:"tool_use_id"`
}

// DecodeInvocation parses hook input JSON into the invocation union.
// Shape validation happens here, once; the pipeline never re-checks types.
func DecodeInvocation(data []byte) (*Invocation, error) {
	var raw rawInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid hook input: %w", err)
	}

	inv := &Invocation{
		Tool:      raw.ToolName,
		SessionID: raw.SessionID,
		ToolUseID: raw.ToolUseID,
		Cwd:       raw.Cwd,
	}

	if raw.ToolName == ToolNameBash {
		inv.Kind = BashInvocation
		inv.Command = stringField(raw.ToolInput, "command")
		return inv, nil
	}

	if write, ok := fileTools[raw.ToolName]; ok {
		inv.Kind = FileInvocation
		inv.Write = write
		inv.Path = stringField(raw.ToolInput, "file_path")
		if inv.Path == "" {
			inv.Path = stringField(raw.ToolInput, "path")
		}
		return inv, nil
	}

	inv.Kind = OtherInvocation
	return inv, nil
}

// stringField extracts a string field from tool_input, tolerating missing or
// non-string values.
func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Argument returns the value that keys the invocation's action signature.
func (inv *Invocation) Argument() string {
	switch inv.Kind {
	case BashInvocation:
		return inv.Command
	case FileInvocation:
		return inv.Path
	default:
		return ""
	}
}
