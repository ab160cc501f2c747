package hook

import (
	"context"
	"fmt"

	"github.com/vaultgate/vaultgate/internal/approval"
	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/blocklist"
	"github.com/vaultgate/vaultgate/internal/config"
	"github.com/vaultgate/vaultgate/internal/logger"
	"github.com/vaultgate/vaultgate/internal/sandbox"
	"github.com/vaultgate/vaultgate/internal/shell"
)

// Verdict is the single policy decision for one tool invocation. Reason is
// always populated when Continue is false.
type Verdict struct {
	Continue bool   `json:"continue"`
	Reason   string `json:"reason,omitempty"`

	// Code is the audit stage code behind the decision.
	Code string `json:"-"`
}

func allow() Verdict {
	return Verdict{Continue: true, Code: audit.CodeAllowed}
}

func deny(code, reason string) Verdict {
	return Verdict{Continue: false, Reason: reason, Code: code}
}

// Evaluator runs the policy pipeline against one configuration snapshot.
// Evaluations for independent invocations may run concurrently; the snapshot
// and the approval manager are the only shared state.
type Evaluator struct {
	cfg       *config.Config
	classify  sandbox.ClassifyFunc
	approvals *approval.Manager
}

// NewEvaluator builds an Evaluator on a config snapshot. approvals may be nil
// when no decision store is available. classify defaults to the snapshot's
// vault boundary; hosts with their own boundary pass it via WithClassifier.
func NewEvaluator(cfg *config.Config, approvals *approval.Manager) *Evaluator {
	e := &Evaluator{cfg: cfg, approvals: approvals}
	if cfg != nil && cfg.Boundary != nil {
		e.classify = cfg.Boundary.Classify
	}
	return e
}

// WithClassifier overrides the path classifier and returns the Evaluator.
func (e *Evaluator) WithClassifier(classify sandbox.ClassifyFunc) *Evaluator {
	e.classify = classify
	return e
}

// Evaluate runs the stage pipeline for inv and returns exactly one verdict.
// Stages run in order and the first violation wins; only an invocation that
// clears every stage is allowed. A panic in any stage resolves to deny:
// the engine exists to contain, so unexpected failures must not fail open.
func (e *Evaluator) Evaluate(ctx context.Context, inv *Invocation) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("policy evaluation panicked", "tool", inv.Tool, "panic", r)
			verdict = deny(audit.CodeInternalError, "internal policy error; action blocked")
		}
	}()

	switch inv.Kind {
	case BashInvocation:
		return e.evaluateBash(ctx, inv)
	case FileInvocation:
		return e.evaluateFile(ctx, inv)
	default:
		return e.checkApproval(ctx, inv)
	}
}

// evaluateBash: construct check → path check → blocklist check → approval.
func (e *Evaluator) evaluateBash(ctx context.Context, inv *Invocation) Verdict {
	cmd := inv.Command
	if cmd == "" {
		// Nothing to check; the approval stage still runs.
		return e.checkApproval(ctx, inv)
	}

	// The construct check runs on the raw command and before any path
	// classification: a successful substitution could forge an
	// apparently-safe path.
	if c := shell.FindDangerousConstruct(cmd); c != nil {
		logger.Debug("dangerous construct", "command", cmd, "kind", c.Kind.String())
		return deny(audit.CodeDangerousConstruct, c.Reason())
	}

	if v := sandbox.FindPathViolation(shell.Normalize(cmd), e.classify); v != nil {
		logger.Debug("path violation", "command", cmd, "path", v.Path)
		return deny(audit.CodePathViolation, v.Reason())
	}

	if m := blocklist.Find(cmd, e.cfg.Rules, e.cfg.BlocklistEnabled(), e.cfg.ExtraWrappers()...); m != nil {
		logger.Debug("blocklist match", "command", cmd, "pattern", m.Pattern)
		return deny(audit.CodeBlocklistMatch, m.Reason())
	}

	return e.checkApproval(ctx, inv)
}

// evaluateFile: the tool's own path argument is classified directly, no
// segmentation or blocklist involved.
func (e *Evaluator) evaluateFile(ctx context.Context, inv *Invocation) Verdict {
	if v := sandbox.CheckToolPath(inv.Path, inv.Write, e.classify); v != nil {
		logger.Debug("path violation", "tool", inv.Tool, "path", v.Path)
		return deny(audit.CodePathViolation, v.Reason())
	}
	return e.checkApproval(ctx, inv)
}

// checkApproval is the last stage: a clean invocation is allowed unless an
// explicit denial rule is on record.
func (e *Evaluator) checkApproval(ctx context.Context, inv *Invocation) Verdict {
	if e.approvals == nil {
		return allow()
	}

	sig := approval.Signature(inv.Tool, inv.Argument())
	decision, err := e.approvals.Decide(ctx, sig)
	if err != nil {
		logger.Debug("approval decision failed", "signature", sig, "error", err)
		return deny(audit.CodeApprovalDeny, fmt.Sprintf("approval for %q could not be resolved", sig))
	}
	if decision == approval.DecisionDeny {
		return deny(audit.CodeApprovalDeny, fmt.Sprintf("denied by approval rule for %q", sig))
	}
	return allow()
}
