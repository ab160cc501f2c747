// Package approval remembers user decisions about tool requests so repeated
// identical requests do not re-prompt. Decisions are keyed by an action
// signature and persisted in a SQLite store; concurrent identical requests
// share a single in-flight prompt.
package approval

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vaultgate/vaultgate/internal/constants"

	_ "modernc.org/sqlite"
)

// Decision is a remembered allow/deny outcome.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Scope controls how long a rule applies.
type Scope string

const (
	ScopeOnce   Scope = "once"
	ScopeAlways Scope = "always"
)

// Rule is a persisted approval decision. Signature may end in '*' to match
// any action with that prefix; an exact signature always beats a wildcard.
type Rule struct {
	Signature string
	Decision  Decision
	Scope     Scope
	CreatedAt time.Time
}

// Store persists approval rules in SQLite. The single connection plus the
// write serialization in Manager give single-writer discipline, so two
// racing approvals for one signature cannot lose updates.
type Store struct {
	db *sql.DB
}

// DefaultStorePath returns the default rule store path
// (~/.local/share/vaultgate/approvals.db, overridable by VAULTGATE_DATA).
func DefaultStorePath() (string, error) {
	if dir := os.Getenv(constants.EnvDataDir); dir != "" {
		return filepath.Join(dir, constants.ApprovalDBName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName, constants.ApprovalDBName), nil
}

// OpenStore opens (creating if needed) the rule store at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		return nil, fmt.Errorf("cannot create store directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}

	// Single connection: SQLite handles one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rules (
		signature   TEXT PRIMARY KEY,
		decision    TEXT NOT NULL,
		scope       TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the most specific rule matching sig: an exact match wins
// over wildcards, and among wildcard rules the longest prefix wins.
// Returns nil when no rule matches.
func (s *Store) Lookup(ctx context.Context, sig string) (*Rule, error) {
	var rule Rule
	err := s.db.QueryRowContext(ctx,
		`SELECT signature, decision, scope, created_at FROM rules WHERE signature = ?`, sig,
	).Scan(&rule.Signature, &rule.Decision, &rule.Scope, &rule.CreatedAt)
	if err == nil {
		return &rule, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT signature, decision, scope, created_at FROM rules WHERE signature LIKE '%*'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var best *Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.Signature, &r.Decision, &r.Scope, &r.CreatedAt); err != nil {
			return nil, err
		}
		prefix := strings.TrimSuffix(r.Signature, "*")
		if !strings.HasPrefix(sig, prefix) {
			continue
		}
		if best == nil || len(r.Signature) > len(best.Signature) {
			rr := r
			best = &rr
		}
	}
	return best, rows.Err()
}

// Put inserts or replaces a rule.
func (s *Store) Put(ctx context.Context, rule Rule) error {
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rules (signature, decision, scope, created_at) VALUES (?, ?, ?, ?)`,
		rule.Signature, string(rule.Decision), string(rule.Scope), rule.CreatedAt,
	)
	return err
}

// Delete removes the rule with the exact signature, if present.
func (s *Store) Delete(ctx context.Context, sig string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE signature = ?`, sig)
	return err
}

// List returns all rules ordered by signature.
func (s *Store) List(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT signature, decision, scope, created_at FROM rules ORDER BY signature`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.Signature, &r.Decision, &r.Scope, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
