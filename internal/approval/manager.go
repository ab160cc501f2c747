package approval

import (
	"context"
	"strings"
	"sync"

	"github.com/vaultgate/vaultgate/internal/logger"
	"github.com/vaultgate/vaultgate/internal/shell"
)

// Signature computes the action signature for a tool request: the tool name
// plus the normalized, whitespace-collapsed argument. Identical requests map
// to identical signatures, which keys both rule lookup and prompt dedupe.
func Signature(tool, argument string) string {
	arg := strings.Join(strings.Fields(shell.Normalize(argument)), " ")
	return tool + ":" + arg
}

// PromptFunc asks the user to decide an action. It must honor ctx: when every
// waiter for the signature has been cancelled, ctx fires and the prompt should
// return ctx.Err().
type PromptFunc func(ctx context.Context, signature string) (Decision, Scope, error)

// inflight is one pending prompt shared by all concurrent waiters for the
// same signature.
type inflight struct {
	done     chan struct{}
	cancel   context.CancelFunc
	waiters  int
	decision Decision
	err      error
}

// Manager resolves approval decisions: persisted rules first, then (when a
// prompt is configured) a user prompt de-duplicated by signature.
type Manager struct {
	store  *Store
	prompt PromptFunc

	mu       sync.Mutex
	inflight map[string]*inflight
}

// NewManager builds a Manager. store may be nil (no persistence) and prompt
// may be nil (hook mode: no terminal to ask on).
func NewManager(store *Store, prompt PromptFunc) *Manager {
	return &Manager{
		store:    store,
		prompt:   prompt,
		inflight: make(map[string]*inflight),
	}
}

// Decide resolves the decision for sig.
//
// A persisted rule wins outright; once-scoped rules are consumed on use.
// With no rule and no prompt configured, the action is allowed: by this
// point every violation check has already passed. A store error resolves to
// deny: containment failures must not fail open.
func (m *Manager) Decide(ctx context.Context, sig string) (Decision, error) {
	if m.store != nil {
		rule, err := m.store.Lookup(ctx, sig)
		if err != nil {
			return DecisionDeny, err
		}
		if rule != nil {
			if rule.Scope == ScopeOnce {
				if err := m.store.Delete(ctx, rule.Signature); err != nil {
					logger.Debug("failed to consume once-scoped rule", "signature", rule.Signature, "error", err)
				}
			}
			return rule.Decision, nil
		}
	}

	if m.prompt == nil {
		return DecisionAllow, nil
	}

	return m.await(ctx, sig)
}

// Record persists a decision for sig. Once-scoped decisions are not stored:
// they apply only to the invocation that earned them.
func (m *Manager) Record(ctx context.Context, sig string, decision Decision, scope Scope) error {
	if m.store == nil || scope != ScopeAlways {
		return nil
	}
	return m.store.Put(ctx, Rule{Signature: sig, Decision: decision, Scope: scope})
}

// await joins (or starts) the in-flight prompt for sig and waits for either
// the decision or ctx cancellation. When the last waiter cancels, the prompt
// itself is retracted so its eventual answer cannot leak into a later,
// unrelated invocation with the same signature.
func (m *Manager) await(ctx context.Context, sig string) (Decision, error) {
	m.mu.Lock()
	p, ok := m.inflight[sig]
	if !ok {
		pctx, cancel := context.WithCancel(context.Background())
		p = &inflight{done: make(chan struct{}), cancel: cancel}
		m.inflight[sig] = p
		go m.runPrompt(pctx, sig, p)
	}
	p.waiters++
	m.mu.Unlock()

	select {
	case <-p.done:
		m.mu.Lock()
		p.waiters--
		m.mu.Unlock()
		return p.decision, p.err
	case <-ctx.Done():
		m.mu.Lock()
		p.waiters--
		if p.waiters == 0 {
			p.cancel()
			if m.inflight[sig] == p {
				delete(m.inflight, sig)
			}
		}
		m.mu.Unlock()
		return DecisionDeny, ctx.Err()
	}
}

func (m *Manager) runPrompt(ctx context.Context, sig string, p *inflight) {
	decision, scope, err := m.prompt(ctx, sig)
	if err == nil {
		if recErr := m.Record(context.WithoutCancel(ctx), sig, decision, scope); recErr != nil {
			logger.Debug("failed to persist approval decision", "signature", sig, "error", recErr)
		}
	}

	m.mu.Lock()
	p.decision, p.err = decision, err
	close(p.done)
	if m.inflight[sig] == p {
		delete(m.inflight, sig)
	}
	m.mu.Unlock()
}
