package filetree

import "strings"

// SplitPath splits a slash-delimited path into its non-empty segments.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	segs := raw[:0]
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// JoinPath joins a parent path and a child name the way flattened paths are
// built: the root has no leading separator.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// relSegments returns the segments of path below root. The first segment is
// dropped when it names the root itself.
func relSegments(root *Node, path string) []string {
	segs := SplitPath(path)
	if len(segs) > 0 && root != nil && segs[0] == root.Name {
		segs = segs[1:]
	}
	return segs
}

// descend walks segs from n. It never mutates the tree.
func descend(n *Node, segs []string) (*Node, error) {
	if n == nil {
		return nil, ErrPathNotFound
	}
	cur := n
	for _, seg := range segs {
		if !cur.IsFolder() {
			return nil, ErrNotAFolder
		}
		next := cur.Child(seg)
		if next == nil {
			return nil, ErrPathNotFound
		}
		cur = next
	}
	return cur, nil
}

// FindByPath resolves a slash-delimited path against root. The first segment
// may be the root's own name. Duplicate sibling names resolve to the first
// match.
func FindByPath(root *Node, path string) (*Node, error) {
	n, err := descend(root, relSegments(root, path))
	if err != nil {
		return nil, &PathError{Op: "find", Path: path, Err: err}
	}
	return n, nil
}

// Exists reports whether path resolves to a node.
func Exists(root *Node, path string) bool {
	_, err := FindByPath(root, path)
	return err == nil
}
