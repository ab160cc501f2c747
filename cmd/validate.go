package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vaultgate/vaultgate/internal/blocklist"
	"github.com/vaultgate/vaultgate/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the compiled policy",
	Long: `Validate checks the vaultgate configuration file and displays the
compiled policy.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which blocklist patterns compiled as regexes and which fell back
  to substring matching
- Reviewing the vault boundary directories`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}

	if err := config.InitError(); err != nil {
		fmt.Printf("WARNING: config file failed to load, using embedded defaults: %v\n\n", err)
	} else if path := config.GetConfigPath(); path != "" {
		fmt.Printf("Configuration valid: %s\n\n", path)
	}

	fmt.Printf("Vault root: %s\n", cfg.File.Vault.Root)
	printDirs("Read-write directories", cfg.File.Vault.ReadWrite)
	printDirs("Context directories (read-only)", cfg.File.Vault.Context)
	printDirs("Export directories (write-only)", cfg.File.Vault.Export)
	fmt.Println()

	fmt.Printf("Blocklist enabled: %v\n", cfg.BlocklistEnabled())
	fmt.Printf("Blocklist patterns: %d\n", len(cfg.Rules))
	for _, r := range cfg.Rules {
		mode := "regex"
		if r.Regex == nil {
			mode = "substring fallback"
		} else if r.Simple {
			mode = "command name"
		}
		fmt.Printf("  - %s (%s)\n", r.Raw, mode)
		if warning := blocklist.Validate(r.Raw); warning != "" {
			fmt.Printf("    WARNING: %s\n", warning)
		}
	}
	fmt.Println()

	if extra := cfg.ExtraWrappers(); len(extra) > 0 {
		fmt.Printf("Extra wrappers: %v\n", extra)
	}

	return nil
}

func printDirs(label string, dirs []string) {
	fmt.Printf("%s: %d\n", label, len(dirs))
	for _, d := range dirs {
		fmt.Printf("  - %s\n", d)
	}
}
