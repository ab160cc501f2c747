// Package sandbox classifies filesystem paths against the vault boundary and
// finds path violations in shell commands and direct file-tool arguments.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AccessType classifies a resolved path relative to the sandbox boundary.
type AccessType int

const (
	// Outside is the zero value so an unclassified path defaults to the
	// most restrictive answer.
	Outside AccessType = iota
	Vault
	ReadWrite
	Context
	Export
)

// String returns the access type name used in reasons and audit entries.
func (a AccessType) String() string {
	switch a {
	case Vault:
		return "vault"
	case ReadWrite:
		return "readwrite"
	case Context:
		return "context"
	case Export:
		return "export"
	case Outside:
		return "outside"
	default:
		return "unknown"
	}
}

// ClassifyFunc maps a path to its access type. The shipped implementation is
// Boundary.Classify; hosts embedding the engine may supply their own.
type ClassifyFunc func(path string) AccessType

// Boundary is the sandbox boundary built from configured directories.
// Export directories are write-only: the agent may produce files there but
// never read them back.
type Boundary struct {
	vault     string
	readwrite []string
	context   []string
	export    []string
}

// NewBoundary builds a boundary rooted at vault. All directories are
// ~-expanded and cleaned; relative ones resolve against the vault root.
func NewBoundary(vault string, readwrite, context, export []string) (*Boundary, error) {
	if strings.TrimSpace(vault) == "" {
		return nil, fmt.Errorf("vault root must not be empty")
	}
	root, err := absolutize(vault, "")
	if err != nil {
		return nil, fmt.Errorf("invalid vault root %q: %w", vault, err)
	}

	b := &Boundary{vault: root}
	for _, group := range []struct {
		dirs []string
		dst  *[]string
	}{
		{readwrite, &b.readwrite},
		{context, &b.context},
		{export, &b.export},
	} {
		for _, d := range group.dirs {
			dir, err := absolutize(d, root)
			if err != nil {
				return nil, fmt.Errorf("invalid boundary directory %q: %w", d, err)
			}
			*group.dst = append(*group.dst, dir)
		}
	}
	return b, nil
}

// Classify resolves path against the boundary. Relative paths resolve from
// the vault root, so "../../etc/passwd" lands wherever it would actually
// land when the agent runs inside the vault.
func (b *Boundary) Classify(path string) AccessType {
	resolved, err := absolutize(path, b.vault)
	if err != nil {
		return Outside
	}

	// Export and context dirs may nest inside the vault, so they are
	// checked before the vault root.
	for _, dir := range b.export {
		if within(dir, resolved) {
			return Export
		}
	}
	for _, dir := range b.context {
		if within(dir, resolved) {
			return Context
		}
	}
	for _, dir := range b.readwrite {
		if within(dir, resolved) {
			return ReadWrite
		}
	}
	if within(b.vault, resolved) {
		return Vault
	}
	return Outside
}

// absolutize expands ~, resolves relative paths against base, and cleans the
// result. It never touches the filesystem; classification is purely lexical.
// A ~user path expands to another user's home, which cannot be resolved
// lexically, so it is reported unresolvable and classifies Outside.
func absolutize(path, base string) (string, error) {
	if strings.HasPrefix(path, "~") {
		if path != "~" && !strings.HasPrefix(path, "~/") {
			return "", fmt.Errorf("cannot resolve home directory in %q", path)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path), nil
}

// within reports whether path is dir or lexically contained in dir.
func within(dir, path string) bool {
	if dir == path {
		return true
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
