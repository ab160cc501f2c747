package hook

import "testing"

func TestDecodeInvocation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		kind    Kind
		command string
		path    string
		write   bool
	}{
		{
			name:    "bash command",
			input:   `{"tool_name":"Bash","tool_input":{"command":"git status"}}`,
			kind:    BashInvocation,
			command: "git status",
		},
		{
			name:  "bash missing command",
			input: `{"tool_name":"Bash","tool_input":{}}`,
			kind:  BashInvocation,
		},
		{
			name:  "bash non-string command degrades to empty",
			input: `{"tool_name":"Bash","tool_input":{"command":42}}`,
			kind:  BashInvocation,
		},
		{
			name:  "read tool",
			input: `{"tool_name":"Read","tool_input":{"file_path":"/vault/notes.md"}}`,
			kind:  FileInvocation,
			path:  "/vault/notes.md",
		},
		{
			name:  "write tool",
			input: `{"tool_name":"Write","tool_input":{"file_path":"/tmp/export/out.csv"}}`,
			kind:  FileInvocation,
			path:  "/tmp/export/out.csv",
			write: true,
		},
		{
			name:  "edit tool",
			input: `{"tool_name":"Edit","tool_input":{"file_path":"/vault/a.md"}}`,
			kind:  FileInvocation,
			path:  "/vault/a.md",
			write: true,
		},
		{
			name:  "glob tool uses path field",
			input: `{"tool_name":"Glob","tool_input":{"path":"/vault","pattern":"*.md"}}`,
			kind:  FileInvocation,
			path:  "/vault",
		},
		{
			name:  "unknown tool",
			input: `{"tool_name":"WebSearch","tool_input":{"query":"weather"}}`,
			kind:  OtherInvocation,
		},
		{
			name:  "missing tool_input",
			input: `{"tool_name":"Bash"}`,
			kind:  BashInvocation,
		},
		{
			name:    "not json",
			input:   `not json`,
			wantErr: true,
		},
		{
			name:  "empty object",
			input: `{}`,
			kind:  OtherInvocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := DecodeInvocation([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeInvocation(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeInvocation(%q) failed: %v", tt.input, err)
			}
			if inv.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", inv.Kind, tt.kind)
			}
			if inv.Command != tt.command {
				t.Errorf("Command = %q, want %q", inv.Command, tt.command)
			}
			if inv.Path != tt.path {
				t.Errorf("Path = %q, want %q", inv.Path, tt.path)
			}
			if inv.Write != tt.write {
				t.Errorf("Write = %v, want %v", inv.Write, tt.write)
			}
		})
	}
}

func TestInvocationArgument(t *testing.T) {
	bash := &Invocation{Kind: BashInvocation, Tool: "Bash", Command: "ls"}
	if got := bash.Argument(); got != "ls" {
		t.Errorf("bash Argument = %q, want %q", got, "ls")
	}
	file := &Invocation{Kind: FileInvocation, Tool: "Read", Path: "/vault/a.md"}
	if got := file.Argument(); got != "/vault/a.md" {
		t.Errorf("file Argument = %q, want %q", got, "/vault/a.md")
	}
	other := &Invocation{Kind: OtherInvocation, Tool: "WebSearch"}
	if got := other.Argument(); got != "" {
		t.Errorf("other Argument = %q, want empty", got)
	}
}
