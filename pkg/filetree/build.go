package filetree

import "sort"

// Builder assembles a tree from slash-separated file paths. Intermediate
// folders are created on demand and keep first-seen order.
type Builder struct {
	root *Node
}

// NewBuilder starts an empty tree whose root folder is named rootName.
func NewBuilder(rootName string) *Builder {
	if rootName == "" {
		rootName = RootName
	}
	return &Builder{root: NewFolder(rootName)}
}

// Add places a file at path, relative to the root. A leading root segment
// is ignored. Adding a path twice overwrites the earlier content.
func (b *Builder) Add(path, content string) error {
	segs := relSegments(b.root, path)
	if len(segs) == 0 {
		return &PathError{Op: "build", Path: path, Err: ErrInvalidName}
	}
	cur := b.root
	for i, seg := range segs {
		if !ValidName(seg) {
			return &PathError{Op: "build", Path: path, Err: ErrInvalidName}
		}
		last := i == len(segs)-1
		next := cur.Child(seg)
		switch {
		case next == nil && last:
			cur.Children = append(cur.Children, NewFile(seg, content))
			return nil
		case next == nil:
			next = NewFolder(seg)
			cur.Children = append(cur.Children, next)
		case last && next.IsFile():
			next.Content = content
			return nil
		case last:
			return &PathError{Op: "build", Path: path, Err: ErrNotAFile}
		case !next.IsFolder():
			return &PathError{Op: "build", Path: path, Err: ErrNotAFolder}
		}
		cur = next
	}
	return nil
}

// AddFolder makes sure an (possibly empty) folder exists at path.
func (b *Builder) AddFolder(path string) error {
	cur := b.root
	for _, seg := range relSegments(b.root, path) {
		if !ValidName(seg) {
			return &PathError{Op: "build", Path: path, Err: ErrInvalidName}
		}
		next := cur.Child(seg)
		if next == nil {
			next = NewFolder(seg)
			cur.Children = append(cur.Children, next)
		} else if !next.IsFolder() {
			return &PathError{Op: "build", Path: path, Err: ErrNotAFolder}
		}
		cur = next
	}
	return nil
}

// Tree returns a copy of the tree built so far.
func (b *Builder) Tree() *Node {
	return Clone(b.root)
}

// FromFlatMap rebuilds a tree from a path -> content map. Paths are added in
// sorted order since maps carry no ordering.
func FromFlatMap(rootName string, files map[string]string) (*Node, error) {
	b := NewBuilder(rootName)
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := b.Add(k, files[k]); err != nil {
			return nil, err
		}
	}
	return b.Tree(), nil
}
