package filetree

import "errors"

var (
	// ErrPathNotFound means a path segment has no matching child.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotAFolder means a folder operation was applied to a file.
	ErrNotAFolder = errors.New("not a folder")
	// ErrNotAFile means a file operation was applied to a folder.
	ErrNotAFile = errors.New("not a file")
	// ErrMalformedInput means an ingested document violates the node shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNoEntryFile means no App.jsx/App.js entry file was found.
	ErrNoEntryFile = errors.New("no entry file found")
	// ErrInvalidName means a node name is not a single path segment.
	ErrInvalidName = errors.New("invalid node name")
	// ErrDuplicateName means two siblings share a name.
	ErrDuplicateName = errors.New("duplicate sibling name")
)

// PathError records the operation and path that caused a tree error.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }
