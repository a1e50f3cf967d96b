package services

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"project-scaffold-web/pkg/filetree"
)

// LineType 终端输出行类型
type LineType string

const (
	LineCommand LineType = "command"
	LineOutput  LineType = "output"
	LineError   LineType = "error"
)

// TerminalLine 一行终端输出
type TerminalLine struct {
	Type LineType `json:"type"`
	Text string   `json:"text"`
}

// TerminalResult 一条命令的执行结果
type TerminalResult struct {
	Cwd   string         `json:"cwd"`
	Lines []TerminalLine `json:"lines"`
	Clear bool           `json:"clear,omitempty"`
}

// Terminal 基于虚拟文件树的模拟终端，只读，不执行任何真实命令。
// 一个 Terminal 对应一个会话，不能并发使用。
type Terminal struct {
	home    string
	cwd     string
	user    string
	history []string
	now     func() time.Time
}

// NewTerminal 创建终端会话，工作目录为 /<rootName>
func NewTerminal(rootName, user string) *Terminal {
	if rootName == "" {
		rootName = filetree.RootName
	}
	if user == "" {
		user = "user"
	}
	home := "/" + rootName
	return &Terminal{home: home, cwd: home, user: user, now: time.Now}
}

// Cwd 返回当前工作目录
func (t *Terminal) Cwd() string { return t.cwd }

// History 返回已执行的命令
func (t *Terminal) History() []string {
	return append([]string(nil), t.history...)
}

var terminalHelp = []string{
	"Available commands:",
	"  help     - Show this help message",
	"  clear    - Clear terminal",
	"  ls       - List directory contents",
	"  pwd      - Print working directory",
	"  cd       - Change directory",
	"  cat      - Display file contents",
	"  echo     - Print text",
	"  date     - Show current date/time",
	"  tree     - Show directory tree",
	"  whoami   - Display current user",
}

// Exec 对 root 执行一条命令
func (t *Terminal) Exec(root *filetree.Node, input string) TerminalResult {
	cmdline := strings.TrimSpace(input)
	res := TerminalResult{}
	if cmdline == "" {
		res.Cwd = t.cwd
		return res
	}
	t.history = append(t.history, cmdline)
	res.Lines = append(res.Lines, TerminalLine{Type: LineCommand, Text: "$ " + cmdline})

	fields := strings.Fields(cmdline)
	command, args := strings.ToLower(fields[0]), fields[1:]
	out := func(text string) { res.Lines = append(res.Lines, TerminalLine{Type: LineOutput, Text: text}) }
	fail := func(text string) { res.Lines = append(res.Lines, TerminalLine{Type: LineError, Text: text}) }

	switch command {
	case "help":
		for _, l := range terminalHelp {
			out(l)
		}
	case "clear":
		res.Clear = true
		res.Lines = nil
	case "ls":
		target := t.cwd
		if len(args) > 0 {
			target = t.resolve(args[0])
		}
		n, err := filetree.FindByPath(root, target)
		if err != nil || !n.IsFolder() {
			fail("Directory not found")
			break
		}
		if len(n.Children) == 0 {
			out("(empty directory)")
		}
		for _, c := range n.Children {
			if c != nil {
				out(icon(c) + " " + c.Name)
			}
		}
	case "pwd":
		out(t.cwd)
	case "cd":
		t.cd(root, args, out, fail)
	case "cat":
		if len(args) == 0 {
			fail("Usage: cat <filename>")
			break
		}
		n, err := filetree.FindByPath(root, t.resolve(args[0]))
		if err != nil || !n.IsFile() {
			fail("File not found or not a file")
			break
		}
		content := n.Content
		if content == "" {
			content = "(empty file)"
		}
		for _, line := range strings.Split(content, "\n") {
			out(line)
		}
	case "echo":
		out(strings.Join(args, " "))
	case "date":
		out(t.now().Format(time.RFC1123))
	case "whoami":
		out(t.user)
	case "tree":
		var buf bytes.Buffer
		root.PrintFunc(&buf, "", true, func(n *filetree.Node) string { return icon(n) + " " + n.Name })
		for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
			out(line)
		}
	default:
		fail(fmt.Sprintf("Command not found: %s. Type 'help' for available commands.", fields[0]))
	}
	res.Cwd = t.cwd
	return res
}

func (t *Terminal) cd(root *filetree.Node, args []string, out, fail func(string)) {
	if len(args) == 0 {
		t.cwd = t.home
		out("Changed to " + t.home)
		return
	}
	target := t.resolve(args[0])
	if target == "/" {
		target = t.home
	}
	n, err := filetree.FindByPath(root, target)
	if err != nil || !n.IsFolder() {
		fail("Directory not found or not a folder")
		return
	}
	if target == t.cwd {
		return
	}
	t.cwd = target
	out("Changed to " + target)
}

// resolve 把参数转换成以 / 开头的规范路径，不会越过根目录
func (t *Terminal) resolve(arg string) string {
	p := arg
	if !strings.HasPrefix(arg, "/") {
		p = t.cwd + "/" + arg
	}
	p = path.Clean(p)
	if !strings.HasPrefix(p+"/", t.home+"/") {
		return t.home
	}
	return p
}

func icon(n *filetree.Node) string {
	if n.IsFolder() {
		return "📁"
	}
	return "📄"
}
