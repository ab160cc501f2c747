package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Verbose: true, Output: &buf})

	Debug("evaluating command", "tool", "Bash")

	output := buf.String()
	if !strings.Contains(output, "evaluating command") {
		t.Errorf("expected output to contain the message, got: %s", output)
	}
	if !strings.Contains(output, "tool=Bash") {
		t.Errorf("expected output to contain 'tool=Bash', got: %s", output)
	}
}

func TestInitOnlyOnce(t *testing.T) {
	defer Reset()

	var buf1, buf2 bytes.Buffer
	Init(Options{Verbose: true, Output: &buf1})
	Init(Options{Verbose: true, Output: &buf2}) // Should be ignored

	Debug("message")

	if buf1.Len() == 0 {
		t.Error("expected first buffer to have output")
	}
	if buf2.Len() != 0 {
		t.Error("expected second buffer to be empty (Init should only work once)")
	}
}

func TestIsVerbose(t *testing.T) {
	defer Reset()

	if IsVerbose() {
		t.Error("expected IsVerbose to be false before Init")
	}

	Init(Options{Verbose: true})

	if !IsVerbose() {
		t.Error("expected IsVerbose to be true after Init with Verbose: true")
	}
}

func TestNonVerboseMode(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Verbose: false, Output: &buf})

	Debug("debug message")
	Info("info message")
	Warn("warn message")

	if buf.Len() != 0 {
		t.Errorf("expected no output below error level in non-verbose mode, got: %s", buf.String())
	}

	Error("error message")

	if !strings.Contains(buf.String(), "error message") {
		t.Error("expected error message to be logged even in non-verbose mode")
	}
}

func TestJSONFormat(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Verbose: true, Output: &buf, JSON: true})

	Debug("verdict rendered", "code", "ALLOWED")

	output := buf.String()
	if !strings.Contains(output, `"msg":"verdict rendered"`) {
		t.Errorf("expected JSON output with msg field, got: %s", output)
	}
	if !strings.Contains(output, `"code":"ALLOWED"`) {
		t.Errorf("expected JSON output with code field, got: %s", output)
	}
}

func TestWith(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Verbose: true, Output: &buf})

	child := With("stage", "blocklist")
	child.Debug("pattern matched")

	if !strings.Contains(buf.String(), "stage=blocklist") {
		t.Errorf("expected output to contain 'stage=blocklist', got: %s", buf.String())
	}
}

func TestLogBeforeInit(t *testing.T) {
	defer Reset()

	// These should not panic even before Init
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}
