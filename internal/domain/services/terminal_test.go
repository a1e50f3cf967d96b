package services

import (
	"strings"
	"testing"
	"time"

	"project-scaffold-web/pkg/filetree"
)

func texts(res TerminalResult) []string {
	var out []string
	for _, l := range res.Lines {
		if l.Type != LineCommand {
			out = append(out, l.Text)
		}
	}
	return out
}

func TestTerminalNavigation(t *testing.T) {
	root := sampleProject()
	term := NewTerminal(root.Name, "")

	tests := []struct {
		input   string
		wantCwd string
		want    string
		isError bool
	}{
		{"pwd", "/project-root", "/project-root", false},
		{"cd src", "/project-root/src", "Changed to /project-root/src", false},
		{"cd hooks", "/project-root/src/hooks", "Changed to /project-root/src/hooks", false},
		{"cd ../utils", "/project-root/src/utils", "Changed to /project-root/src/utils", false},
		{"cd ..", "/project-root/src", "Changed to /project-root/src", false},
		{"cd App.jsx", "/project-root/src", "Directory not found or not a folder", true},
		{"cd /project-root/backend/routes", "/project-root/backend/routes", "Changed to /project-root/backend/routes", false},
		{"cd", "/project-root", "Changed to /project-root", false},
		{"cd ../../..", "/project-root", "", false},
		{"cd nowhere", "/project-root", "Directory not found or not a folder", true},
	}
	for _, tt := range tests {
		res := term.Exec(root, tt.input)
		if res.Cwd != tt.wantCwd {
			t.Errorf("%q: cwd = %q, want %q", tt.input, res.Cwd, tt.wantCwd)
		}
		got := strings.Join(texts(res), "\n")
		if got != tt.want {
			t.Errorf("%q: output = %q, want %q", tt.input, got, tt.want)
		}
		if tt.isError && res.Lines[len(res.Lines)-1].Type != LineError {
			t.Errorf("%q: expected an error line", tt.input)
		}
	}
	if h := term.History(); len(h) != len(tests) {
		t.Errorf("history has %d entries, want %d", len(h), len(tests))
	}
}

func TestTerminalCommands(t *testing.T) {
	root := filetree.NewFolder(filetree.RootName,
		filetree.NewFolder("src", filetree.NewFile("App.jsx", "line1\nline2")),
		filetree.NewFolder("empty"),
		filetree.NewFile("blank.txt", ""),
	)
	term := NewTerminal(root.Name, "alice")
	term.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		input string
		want  []string
	}{
		{"ls", []string{"📁 src", "📁 empty", "📄 blank.txt"}},
		{"ls empty", []string{"(empty directory)"}},
		{"ls blank.txt", []string{"Directory not found"}},
		{"cat src/App.jsx", []string{"line1", "line2"}},
		{"cat /project-root/blank.txt", []string{"(empty file)"}},
		{"cat src", []string{"File not found or not a file"}},
		{"cat", []string{"Usage: cat <filename>"}},
		{"echo hello   world", []string{"hello world"}},
		{"whoami", []string{"alice"}},
		{"date", []string{"Wed, 01 May 2024 12:00:00 UTC"}},
		{"tree", []string{"└── 📁 project-root", "    ├── 📁 src", "    │   └── 📄 App.jsx", "    ├── 📁 empty", "    └── 📄 blank.txt"}},
		{"rm -rf /", []string{"Command not found: rm. Type 'help' for available commands."}},
	}
	for _, tt := range tests {
		got := texts(term.Exec(root, tt.input))
		if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
			t.Errorf("%q:\n got %q\nwant %q", tt.input, got, tt.want)
		}
	}

	res := term.Exec(root, "clear")
	if !res.Clear || len(res.Lines) != 0 {
		t.Errorf("clear = %+v", res)
	}
	if res := term.Exec(root, "   "); len(res.Lines) != 0 {
		t.Errorf("blank input produced output: %+v", res)
	}
	if help := texts(term.Exec(root, "HELP")); len(help) != len(terminalHelp) {
		t.Errorf("help printed %d lines", len(help))
	}
}
