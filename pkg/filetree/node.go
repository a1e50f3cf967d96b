// Package filetree implements the in-memory virtual file tree that backs a
// generated project: folders hold ordered children, files hold their source
// text. All operations are pure: mutations work on a deep copy and return it.
package filetree

import "strings"

// Kind tags a node as a file or a folder.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// RootName is the conventional name of a tree's root folder.
const RootName = "project-root"

// Node is a file or a folder in the virtual tree.
//
// A folder keeps its entries in Children (nil means empty); a file keeps its
// text in Content (empty means absent).
type Node struct {
	Name     string
	Kind     Kind
	Children []*Node
	Content  string
}

// NewFolder creates a folder node with the given children.
func NewFolder(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindFolder, Children: children}
}

// NewFile creates a file node.
func NewFile(name, content string) *Node {
	return &Node{Name: name, Kind: KindFile, Content: content}
}

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool {
	return n != nil && n.Kind == KindFolder
}

// IsFile reports whether n is a file.
func (n *Node) IsFile() bool {
	return n != nil && n.Kind == KindFile
}

// Child returns the first child named name, or nil.
func (n *Node) Child(name string) *Node {
	if !n.IsFolder() {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy of n. Nil children are dropped.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Name: n.Name, Kind: n.Kind, Content: n.Content}
	if n.Kind == KindFolder {
		cp.Content = ""
		cp.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			cp.Children = append(cp.Children, Clone(c))
		}
	}
	return cp
}

// Equal reports whether a and b are structurally equal. A nil and an empty
// children list compare equal, as do a missing and an empty content.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindFile {
		return a.Content == b.Content
	}
	ac, bc := nonNil(a.Children), nonNil(b.Children)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func nonNil(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// ValidName reports whether name is a single, non-empty path segment.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
