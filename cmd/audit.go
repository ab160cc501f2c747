package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/config"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and manage the audit log",
}

var auditPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the audit log path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := activeAuditPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var auditRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Compress the current audit log and start a fresh one",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := activeAuditPath()
		if err != nil {
			return err
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("no audit log at %s: %w", path, err)
		}
		if info.Size() == 0 {
			fmt.Printf("Audit log %s is empty, nothing to rotate.\n", path)
			return nil
		}

		// Release our own handle before truncating.
		audit.Close()
		if err := audit.Rotate(path); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
		fmt.Printf("Rotated %s (%d bytes compressed to .zst)\n", path, info.Size())
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditPathCmd)
	auditCmd.AddCommand(auditRotateCmd)
	rootCmd.AddCommand(auditCmd)
}

// activeAuditPath resolves the effective audit log path: the open log if
// audit logging is enabled, otherwise the configured or default path.
func activeAuditPath() (string, error) {
	if p := audit.Path(); p != "" {
		return p, nil
	}
	if p := config.Get().File.Audit.Log; p != "" {
		return p, nil
	}
	return audit.DefaultLogPath()
}
