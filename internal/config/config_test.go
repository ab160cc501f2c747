package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultgate/vaultgate/internal/constants"
	"github.com/vaultgate/vaultgate/internal/sandbox"
)

func TestLoad(t *testing.T) {
	data := []byte(`
[vault]
root = "/vault"
readwrite = ["/scratch"]
export = ["/tmp/export"]

[blocklist]
enabled = true
patterns = ["rm", 'curl.*\|.*sh']

[wrappers]
extra = ["doas"]
`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Rules) != 2 {
		t.Errorf("expected 2 compiled rules, got %d", len(cfg.Rules))
	}
	if !cfg.BlocklistEnabled() {
		t.Error("blocklist should be enabled")
	}
	if got := cfg.ExtraWrappers(); len(got) != 1 || got[0] != "doas" {
		t.Errorf("ExtraWrappers = %v", got)
	}
	if cfg.Boundary.Classify("/vault/notes.md") != sandbox.Vault {
		t.Error("boundary did not cover the vault root")
	}
	if cfg.Boundary.Classify("/etc/hosts") != sandbox.Outside {
		t.Error("boundary classified an outside path as inside")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	if _, err := Load([]byte("[vault\nroot =")); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load(GetDefaultConfig())
	if err != nil {
		t.Fatalf("embedded defaults failed to load: %v", err)
	}
	if !cfg.BlocklistEnabled() {
		t.Error("embedded defaults should enable the blocklist")
	}
	if len(cfg.Rules) == 0 {
		t.Error("embedded defaults should ship blocklist patterns")
	}
}

func TestInitCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	os.Setenv(constants.EnvConfigDir, dir)
	defer os.Unsetenv(constants.EnvConfigDir)
	Reset()
	defer Reset()

	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	path := filepath.Join(dir, constants.ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file was not written: %v", err)
	}
	if got := GetConfigPath(); got != path {
		t.Errorf("GetConfigPath = %q, want %q", got, path)
	}
	if Get() == nil {
		t.Fatal("Get returned nil after Init")
	}
}

func TestInitFallsBackToEmbeddedDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, constants.ConfigFileName)
	if err := os.WriteFile(path, []byte("[vault\nbroken"), constants.FileMode); err != nil {
		t.Fatal(err)
	}
	os.Setenv(constants.EnvConfigDir, dir)
	defer os.Unsetenv(constants.EnvConfigDir)
	Reset()
	defer Reset()

	if err := Init(); err == nil {
		t.Error("Init should report the load error")
	}
	if InitError() == nil {
		t.Error("InitError should record the fallback cause")
	}

	// Evaluation must still have a working snapshot.
	cfg := Get()
	if cfg == nil {
		t.Fatal("Get returned nil after fallback")
	}
	if cfg.Boundary == nil {
		t.Error("fallback snapshot has no boundary")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	os.Setenv(constants.EnvConfigDir, dir)
	defer os.Unsetenv(constants.EnvConfigDir)
	Reset()
	defer Reset()

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	first := Get()
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if Get() != first {
		t.Error("second Init replaced the snapshot")
	}
}

func TestSetSwapsSnapshot(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(GetDefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	Set(cfg)
	if Get() != cfg {
		t.Error("Get did not return the snapshot installed by Set")
	}
}
