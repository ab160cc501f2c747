// Package audit provides audit logging for vaultgate policy decisions.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vaultgate/vaultgate/internal/constants"
	"github.com/vaultgate/vaultgate/internal/logger"
)

// Decision stage codes
const (
	CodeDangerousConstruct = "DANGEROUS_CONSTRUCT"
	CodePathViolation      = "PATH_VIOLATION"
	CodeBlocklistMatch     = "BLOCKLIST_MATCH"
	CodeApprovalDeny       = "APPROVAL_DENY"
	CodeAllowed            = "ALLOWED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// Entry represents a single audit log entry (v1 format).
type Entry struct {
	Version     int     `json:"version"`
	ToolUseID   string  `json:"tool_use_id"`
	SessionID   string  `json:"session_id"`
	Timestamp   string  `json:"timestamp"`
	DurationMs  float64 `json:"duration_ms"`
	Tool        string  `json:"tool"`
	Command     string  `json:"command,omitempty"`
	Path        string  `json:"path,omitempty"`
	Continue    bool    `json:"continue"`
	Code        string  `json:"code"`
	Reason      string  `json:"reason,omitempty"`
	Cwd         string  `json:"cwd,omitempty"`
	Input       string  `json:"input,omitempty"`
	Output      string  `json:"output,omitempty"`
	ConfigPath  string  `json:"config_path,omitempty"`
	ConfigError string  `json:"config_error,omitempty"`
}

var (
	auditFile *os.File
	auditPath string
	mu        sync.Mutex
	enabled   bool
)

// DefaultLogPath returns the default audit log path
// (~/.local/share/vaultgate/audit.log, overridable by VAULTGATE_DATA).
func DefaultLogPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.AuditLogFileName), nil
}

func dataDir() (string, error) {
	if dir := os.Getenv(constants.EnvDataDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName), nil
}

// Init initializes the audit log. If path is empty, uses the default path.
// When maxSize > 0 and the existing log exceeds it, the log is rotated and
// compressed before opening. Pass disable=true to turn audit logging off.
func Init(path string, maxSize int64, disable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if disable {
		enabled = false
		return nil
	}

	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			logger.Debug("failed to get default audit log path", "error", err)
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return err
	}

	if maxSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
			if err := rotateLocked(path); err != nil {
				logger.Debug("audit log rotation failed", "error", err)
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}

	auditFile = f
	auditPath = path
	enabled = true
	logger.Debug("audit logging initialized", "path", path)
	return nil
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		err := auditFile.Close()
		auditFile = nil
		enabled = false
		return err
	}
	return nil
}

// Log writes an entry to the audit log.
// If audit logging is not initialized or disabled, this is a no-op.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	// Timestamps use tenths of second precision (1 decimal place).
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	if _, err := auditFile.Write(append(data, '\n')); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}

	return nil
}

// Path returns the active audit log path, or "" when logging is disabled.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return auditPath
}

// Rotate compresses the log at path to <path>.<timestamp>.zst and truncates
// the original. The active log file, if open, keeps its handle; callers that
// hold one should Close and re-Init around an explicit rotation.
func Rotate(path string) error {
	mu.Lock()
	defer mu.Unlock()
	return rotateLocked(path)
}

func rotateLocked(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	rotated := fmt.Sprintf("%s.%s.zst", path, time.Now().UTC().Format("20060102T150405"))
	dst, err := os.OpenFile(rotated, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		dst.Close()
		os.Remove(rotated)
		return err
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		dst.Close()
		os.Remove(rotated)
		return err
	}
	if err := enc.Close(); err != nil {
		dst.Close()
		os.Remove(rotated)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(rotated)
		return err
	}

	logger.Debug("audit log rotated", "to", rotated)
	return os.Truncate(path, 0)
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	auditPath = ""
	enabled = false
}
