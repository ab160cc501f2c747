// vaultgate - command security policy engine for autonomous agent sandboxing
//
// Vaultgate is a PreToolUse hook that evaluates agent tool invocations before
// they run. A Bash command is checked for dangerous shell constructs, paths
// outside the vault boundary, and blocklisted commands; file tools are
// confined to the boundary. Everything else falls through to remembered
// user approvals.
//
// Usage in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse": [{
//	    "matcher": "Bash|Read|Write|Edit|Glob|Grep",
//	    "hooks": [{"type": "command", "command": "vaultgate"}]
//	  }]
//	}
//
// Test:
//
//	echo '{"tool_name": "Bash", "tool_input": {"command": "ls ~/vault"}}' | vaultgate
package main

import (
	"os"

	"github.com/vaultgate/vaultgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
