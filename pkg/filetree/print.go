package filetree

import (
	"bytes"
)

// Print writes the tree as an ASCII diagram, children in insertion order.
func (n *Node) Print(buffer *bytes.Buffer, prefix string, isLast bool) {
	n.PrintFunc(buffer, prefix, isLast, func(n *Node) string { return n.Name })
}

// PrintFunc is Print with a custom label for each node.
func (n *Node) PrintFunc(buffer *bytes.Buffer, prefix string, isLast bool, label func(*Node) string) {
	if n == nil {
		return
	}
	buffer.WriteString(prefix)
	if isLast {
		buffer.WriteString("└── ")
		prefix += "    "
	} else {
		buffer.WriteString("├── ")
		prefix += "│   "
	}
	buffer.WriteString(label(n) + "\n")

	if !n.IsFolder() {
		return
	}
	children := nonNil(n.Children)
	for i, child := range children {
		child.PrintFunc(buffer, prefix, i == len(children)-1, label)
	}
}

// Render returns the Print output of root.
func Render(root *Node) string {
	var buf bytes.Buffer
	root.Print(&buf, "", true)
	return buf.String()
}
