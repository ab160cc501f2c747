package hook

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/vaultgate/vaultgate/internal/approval"
	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/config"
	"github.com/vaultgate/vaultgate/internal/logger"
)

// Audit log version
const AuditVersion = 1

// fallbackOutput is emitted when even verdict marshalling fails.
const fallbackOutput = `{"continue":false,"reason":"internal error"}`

// Result contains the outcome of processing one hook invocation.
type Result struct {
	Invocation *Invocation // nil when the input could not be decoded
	Verdict    Verdict
	Output     string // the JSON written back to the agent host
}

// Process reads one tool-invocation descriptor from r, evaluates it against
// the current configuration snapshot, writes an audit entry, and returns the
// result. Input that cannot be decoded at all is denied: an engine built for
// containment does not approve what it cannot read.
func Process(ctx context.Context, r io.Reader, approvals *approval.Manager) Result {
	start := time.Now()

	raw, err := io.ReadAll(r)
	if err != nil {
		logger.Debug("failed to read input", "error", err)
		verdict := deny(audit.CodeInvalidInput, "failed to read hook input")
		return finish(start, nil, "", verdict)
	}

	inv, err := DecodeInvocation(raw)
	if err != nil {
		logger.Debug("failed to decode input", "error", err)
		verdict := deny(audit.CodeInvalidInput, "invalid hook input")
		return finish(start, nil, string(raw), verdict)
	}

	logger.Debug("processing invocation",
		"tool", inv.Tool,
		"command", inv.Command,
		"path", inv.Path)

	cfg := config.Get()
	verdict := NewEvaluator(cfg, approvals).Evaluate(ctx, inv)
	return finish(start, inv, string(raw), verdict)
}

// finish renders the verdict, writes the audit entry, and assembles the Result.
func finish(start time.Time, inv *Invocation, rawInput string, verdict Verdict) Result {
	output := FormatVerdict(verdict)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	entry := audit.Entry{
		Version:    AuditVersion,
		DurationMs: durationMs,
		Continue:   verdict.Continue,
		Code:       verdict.Code,
		Reason:     verdict.Reason,
		Input:      rawInput,
		Output:     output,
		ConfigPath: config.GetConfigPath(),
	}
	if err := config.InitError(); err != nil {
		entry.ConfigError = err.Error()
	}
	if inv != nil {
		entry.Tool = inv.Tool
		entry.Command = inv.Command
		entry.Path = inv.Path
		entry.SessionID = inv.SessionID
		entry.ToolUseID = inv.ToolUseID
		entry.Cwd = inv.Cwd
	}
	audit.Log(entry)

	if verdict.Continue {
		logger.Debug("allowed")
	} else {
		logger.Debug("denied", "reason", verdict.Reason)
	}
	return Result{Invocation: inv, Verdict: verdict, Output: output}
}

// FormatVerdict renders the verdict JSON sent back to the agent host.
func FormatVerdict(v Verdict) string {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Debug("failed to marshal verdict", "error", err)
		return fallbackOutput
	}
	return string(data)
}
