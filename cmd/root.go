// Package cmd implements the CLI commands for vaultgate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vaultgate/vaultgate/internal/approval"
	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/config"
	"github.com/vaultgate/vaultgate/internal/hook"
	"github.com/vaultgate/vaultgate/internal/logger"
)

var (
	// Global flags
	verbose    bool
	dryRun     bool
	noAuditLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultgate",
	Short: "Command security policy engine for autonomous agent sandboxing",
	Long: `Vaultgate is a PreToolUse hook that evaluates agent tool invocations
against a security policy: dangerous shell constructs, vault path boundaries,
a command blocklist, and remembered user approvals.

When called without arguments, it reads a JSON tool invocation from stdin and
writes a verdict JSON to stdout.

Usage in ~/.claude/settings.json:
  "hooks": {
    "PreToolUse": [{
      "matcher": "Bash|Read|Write|Edit|Glob|Grep",
      "hooks": [{"type": "command", "command": "vaultgate"}]
    }]
  }`,
	// Run the hook by default when no subcommand is given
	Run: runHook,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize before running any command
	cobra.OnInitialize(initApp)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print a human-readable verdict to stderr instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	logger.Init(logger.Options{Verbose: verbose})

	config.Init()

	cfg := config.Get()
	if err := audit.Init(cfg.File.Audit.Log, cfg.File.Audit.MaxLogSize, noAuditLog); err != nil {
		logger.Warn("audit logging unavailable", "error", err)
	}
}

// runHook is the default command that processes stdin for a policy verdict.
func runHook(cmd *cobra.Command, args []string) {
	approvals, closeStore := openApprovals(nil)
	defer closeStore()

	result := hook.Process(cmd.Context(), os.Stdin, approvals)

	if dryRun {
		// In dry-run mode, describe the verdict on stderr instead of
		// emitting hook JSON.
		target := "(unreadable input)"
		if result.Invocation != nil {
			target = result.Invocation.Tool + " " + result.Invocation.Argument()
		}
		if result.Verdict.Continue {
			fmt.Fprintf(os.Stderr, "ALLOWED: %s\n", target)
		} else {
			fmt.Fprintf(os.Stderr, "DENIED: %s (%s)\n", target, result.Verdict.Reason)
		}
		return
	}

	fmt.Print(result.Output)
}

// openApprovals opens the configured approval rule store and wraps it in a
// manager. A missing or unopenable store degrades to a nil manager, which
// skips the approval stage entirely.
func openApprovals(prompt approval.PromptFunc) (*approval.Manager, func()) {
	cfg := config.Get()
	path := cfg.File.Approval.Store
	if path == "" {
		var err error
		path, err = approval.DefaultStorePath()
		if err != nil {
			logger.Debug("no approval store path", "error", err)
			return nil, func() {}
		}
	}

	store, err := approval.OpenStore(path)
	if err != nil {
		logger.Warn("approval store unavailable", "path", path, "error", err)
		return nil, func() {}
	}
	return approval.NewManager(store, prompt), func() { store.Close() }
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsDryRun returns whether dry-run mode is enabled
func IsDryRun() bool {
	return dryRun
}
