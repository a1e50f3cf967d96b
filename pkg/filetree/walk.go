package filetree

import (
	"errors"
	"iter"
	"sort"
	"strings"
)

// SkipDir can be returned by a WalkFunc to skip a folder's children.
var SkipDir = errors.New("skip this folder")

// WalkFunc is called for every node in pre-order with its full path.
type WalkFunc func(path string, n *Node) error

// Walk visits root and all its descendants depth-first, pre-order, children
// in slice order. Paths include the root name as first segment.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	err := walk(root, "", fn)
	if err == SkipDir {
		return nil
	}
	return err
}

func walk(n *Node, parent string, fn WalkFunc) error {
	p := JoinPath(parent, n.Name)
	if err := fn(p, n); err != nil {
		return err
	}
	if !n.IsFolder() {
		return nil
	}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if err := walk(c, p, fn); err != nil {
			if err == SkipDir {
				continue
			}
			return err
		}
	}
	return nil
}

// Flatten returns a lazy sequence of (path, content) pairs, one per file,
// in pre-order. Folders only contribute their name to descendant paths. The
// sequence may be ranged over any number of times.
func Flatten(root *Node) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		flatten(root, "", yield)
	}
}

func flatten(n *Node, parent string, yield func(string, string) bool) bool {
	if n == nil {
		return true
	}
	p := JoinPath(parent, n.Name)
	switch n.Kind {
	case KindFile:
		return yield(p, n.Content)
	case KindFolder:
		for _, c := range n.Children {
			if !flatten(c, p, yield) {
				return false
			}
		}
	}
	return true
}

// FlatMap collects Flatten into a path -> content map.
func FlatMap(root *Node) map[string]string {
	files := make(map[string]string)
	for p, content := range Flatten(root) {
		files[p] = content
	}
	return files
}

// Paths returns the sorted keys of a flat file map.
func Paths(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry is a file selected by Collect.
type Entry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Predicate selects files during Collect.
type Predicate func(name, path, content string) bool

// Collect returns every file satisfying pred, in traversal order.
func Collect(root *Node, pred Predicate) []Entry {
	var out []Entry
	for p, content := range Flatten(root) {
		name := p[strings.LastIndex(p, "/")+1:]
		if pred == nil || pred(name, p, content) {
			out = append(out, Entry{Name: name, Path: p, Content: content})
		}
	}
	return out
}

// Stats summarizes a tree.
type Stats struct {
	Files   int `json:"files"`
	Folders int `json:"folders"`
	Lines   int `json:"lines"`
}

// CountFiles returns the number of file nodes.
func CountFiles(root *Node) int {
	count := 0
	for range Flatten(root) {
		count++
	}
	return count
}

// CountLines sums the line counts of all files. Empty files count zero.
func CountLines(root *Node) int {
	lines := 0
	for _, content := range Flatten(root) {
		lines += LineCount(content)
	}
	return lines
}

// CountLinesSplit sums len(strings.Split(content, "\n")) per file, so an empty
// file counts as one line.
func CountLinesSplit(root *Node) int {
	lines := 0
	for _, content := range Flatten(root) {
		lines += len(strings.Split(content, "\n"))
	}
	return lines
}

// LineCount returns the number of newline-separated segments in content, or
// zero for empty content.
func LineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// Summarize counts files, folders (root included) and lines in one pass.
func Summarize(root *Node) Stats {
	var s Stats
	_ = Walk(root, func(_ string, n *Node) error {
		switch n.Kind {
		case KindFolder:
			s.Folders++
		case KindFile:
			s.Files++
			s.Lines += LineCount(n.Content)
		}
		return nil
	})
	return s
}
