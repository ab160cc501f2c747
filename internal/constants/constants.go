// Package constants defines shared constants used across the vaultgate codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvConfigDir = "VAULTGATE_CONFIG"
	EnvDataDir   = "VAULTGATE_DATA"
)

// Application paths
const (
	AppName          = "vaultgate"
	XDGConfigSubdir  = ".config"
	XDGDataSubdir    = ".local/share"
	ConfigFileName   = "config.toml"
	AuditLogFileName = "audit.log"
	ApprovalDBName   = "approvals.db"
)
