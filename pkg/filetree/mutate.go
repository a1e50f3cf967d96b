package filetree

// InsertChild returns a copy of root with child appended to the folder at
// parentPath. root is never modified.
func InsertChild(root *Node, parentPath string, child *Node) (*Node, error) {
	if child == nil {
		return nil, &PathError{Op: "insert", Path: parentPath, Err: ErrMalformedInput}
	}
	if !ValidName(child.Name) {
		return nil, &PathError{Op: "insert", Path: parentPath, Err: ErrInvalidName}
	}
	cp := Clone(root)
	parent, err := descend(cp, relSegments(cp, parentPath))
	if err != nil {
		return nil, &PathError{Op: "insert", Path: parentPath, Err: err}
	}
	if !parent.IsFolder() {
		return nil, &PathError{Op: "insert", Path: parentPath, Err: ErrNotAFolder}
	}
	if parent.Children == nil {
		parent.Children = []*Node{}
	}
	parent.Children = append(parent.Children, Clone(child))
	return cp, nil
}

// ReplaceSubtree returns a copy of root in which the node at path is
// replaced by node. The parent of path must exist; when it has no child with
// the terminal name, node is appended instead. An empty path (or the root's
// own name) replaces the whole tree; the replacement must then be a folder.
func ReplaceSubtree(root *Node, path string, node *Node) (*Node, error) {
	if node == nil {
		return nil, &PathError{Op: "replace", Path: path, Err: ErrMalformedInput}
	}
	if !ValidName(node.Name) {
		return nil, &PathError{Op: "replace", Path: path, Err: ErrInvalidName}
	}
	segs := relSegments(root, path)
	if len(segs) == 0 {
		if !node.IsFolder() {
			return nil, &PathError{Op: "replace", Path: path, Err: ErrNotAFolder}
		}
		return Clone(node), nil
	}
	cp := Clone(root)
	parent, err := descend(cp, segs[:len(segs)-1])
	if err != nil {
		return nil, &PathError{Op: "replace", Path: path, Err: err}
	}
	if !parent.IsFolder() {
		return nil, &PathError{Op: "replace", Path: path, Err: ErrNotAFolder}
	}
	name := segs[len(segs)-1]
	for i, c := range parent.Children {
		if c != nil && c.Name == name {
			parent.Children[i] = Clone(node)
			return cp, nil
		}
	}
	parent.Children = append(parent.Children, Clone(node))
	return cp, nil
}

// RemoveAt returns a copy of root without the node at path.
func RemoveAt(root *Node, path string) (*Node, error) {
	segs := relSegments(root, path)
	if len(segs) == 0 {
		return nil, &PathError{Op: "remove", Path: path, Err: ErrInvalidName}
	}
	cp := Clone(root)
	parent, err := descend(cp, segs[:len(segs)-1])
	if err != nil {
		return nil, &PathError{Op: "remove", Path: path, Err: err}
	}
	if !parent.IsFolder() {
		return nil, &PathError{Op: "remove", Path: path, Err: ErrNotAFolder}
	}
	name := segs[len(segs)-1]
	for i, c := range parent.Children {
		if c != nil && c.Name == name {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return cp, nil
		}
	}
	return nil, &PathError{Op: "remove", Path: path, Err: ErrPathNotFound}
}

// Rename returns a copy of root with the node at path renamed. Renaming onto
// an existing sibling name fails with ErrDuplicateName.
func Rename(root *Node, path, newName string) (*Node, error) {
	if !ValidName(newName) {
		return nil, &PathError{Op: "rename", Path: path, Err: ErrInvalidName}
	}
	segs := relSegments(root, path)
	cp := Clone(root)
	if len(segs) == 0 {
		if cp == nil {
			return nil, &PathError{Op: "rename", Path: path, Err: ErrPathNotFound}
		}
		cp.Name = newName
		return cp, nil
	}
	parent, err := descend(cp, segs[:len(segs)-1])
	if err != nil {
		return nil, &PathError{Op: "rename", Path: path, Err: err}
	}
	target, err := descend(parent, segs[len(segs)-1:])
	if err != nil {
		return nil, &PathError{Op: "rename", Path: path, Err: err}
	}
	if target.Name == newName {
		return cp, nil
	}
	if parent.Child(newName) != nil {
		return nil, &PathError{Op: "rename", Path: path, Err: ErrDuplicateName}
	}
	target.Name = newName
	return cp, nil
}

// UpdateContent returns a copy of root with the file at path holding content.
func UpdateContent(root *Node, path, content string) (*Node, error) {
	cp := Clone(root)
	target, err := descend(cp, relSegments(cp, path))
	if err != nil {
		return nil, &PathError{Op: "update", Path: path, Err: err}
	}
	if !target.IsFile() {
		return nil, &PathError{Op: "update", Path: path, Err: ErrNotAFile}
	}
	target.Content = content
	return cp, nil
}

// Validate checks every name in the tree and reports the first pair of
// siblings sharing a name.
func Validate(root *Node) error {
	if root == nil {
		return &PathError{Op: "validate", Path: "", Err: ErrMalformedInput}
	}
	return Walk(root, func(path string, n *Node) error {
		if !ValidName(n.Name) {
			return &PathError{Op: "validate", Path: path, Err: ErrInvalidName}
		}
		if n.Kind != KindFile && n.Kind != KindFolder {
			return &PathError{Op: "validate", Path: path, Err: ErrMalformedInput}
		}
		seen := make(map[string]struct{}, len(n.Children))
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			if _, dup := seen[c.Name]; dup {
				return &PathError{Op: "validate", Path: JoinPath(path, c.Name), Err: ErrDuplicateName}
			}
			seen[c.Name] = struct{}{}
		}
		return nil
	})
}
