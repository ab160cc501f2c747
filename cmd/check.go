package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vaultgate/vaultgate/internal/approval"
	"github.com/vaultgate/vaultgate/internal/config"
	"github.com/vaultgate/vaultgate/internal/hook"
)

var (
	checkTool        string
	checkPath        string
	checkInteractive bool
)

var checkCmd = &cobra.Command{
	Use:   "check [command...]",
	Short: "Evaluate a command or file path against the policy",
	Long: `Check evaluates a tool invocation against the current policy without
reading hook JSON from stdin.

Pass a shell command as arguments to check it as a Bash invocation:

  vaultgate check rm -rf /vault/old

Or check a file tool with --tool and --path:

  vaultgate check --tool Write --path /vault/notes.md

With --interactive, decisions that reach the approval stage prompt on the
terminal and remembered answers are persisted to the rule store.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Tool name for a file-tool check (Read, Write, Edit, ...)")
	checkCmd.Flags().StringVar(&checkPath, "path", "", "File path for a file-tool check")
	checkCmd.Flags().BoolVarP(&checkInteractive, "interactive", "i", false, "Prompt for approval decisions on the terminal")
}

func runCheck(cmd *cobra.Command, args []string) error {
	inv, err := checkInvocation(args)
	if err != nil {
		return err
	}

	var prompt approval.PromptFunc
	if checkInteractive {
		prompt = terminalPrompt
	}
	approvals, closeStore := openApprovals(prompt)
	defer closeStore()

	cfg := config.Get()
	verdict := hook.NewEvaluator(cfg, approvals).Evaluate(cmd.Context(), inv)

	if verdict.Continue {
		fmt.Printf("ALLOWED: %s %s\n", inv.Tool, inv.Argument())
		return nil
	}
	fmt.Printf("DENIED: %s %s\n  %s\n", inv.Tool, inv.Argument(), verdict.Reason)
	return nil
}

// checkInvocation builds the invocation from flags or positional arguments.
func checkInvocation(args []string) (*hook.Invocation, error) {
	if checkTool != "" || checkPath != "" {
		if checkTool == "" || checkPath == "" {
			return nil, fmt.Errorf("--tool and --path must be given together")
		}
		if len(args) > 0 {
			return nil, fmt.Errorf("cannot combine --tool/--path with a command")
		}
		input := fmt.Sprintf(`{"tool_name":%q,"tool_input":{"file_path":%q}}`, checkTool, checkPath)
		return hook.DecodeInvocation([]byte(input))
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("nothing to check: pass a command or --tool/--path")
	}
	return &hook.Invocation{
		Kind:    hook.BashInvocation,
		Tool:    hook.ToolNameBash,
		Command: strings.Join(args, " "),
	}, nil
}

// terminalPrompt asks the user for an approval decision on stderr/stdin.
func terminalPrompt(ctx context.Context, signature string) (approval.Decision, approval.Scope, error) {
	fmt.Fprintf(os.Stderr, "Allow %s? [y]es once / [a]lways / [n]o / [d]eny always: ", signature)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return approval.DecisionDeny, approval.ScopeOnce, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return approval.DecisionAllow, approval.ScopeOnce, nil
	case "a", "always":
		return approval.DecisionAllow, approval.ScopeAlways, nil
	case "d":
		return approval.DecisionDeny, approval.ScopeAlways, nil
	default:
		return approval.DecisionDeny, approval.ScopeOnce, nil
	}
}
