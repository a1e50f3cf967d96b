package filetree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// wireNode is the JSON shape exchanged with the model and with clients:
// {name, type, children?, content?}.
type wireNode struct {
	Name     string  `json:"name"`
	Type     Kind    `json:"type"`
	Children []*Node `json:"children,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// MarshalJSON emits the wire shape. Folders always carry a children array
// and files always carry content, so absent fields come back default-filled.
func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Name: n.Name, Type: n.Kind}
	switch n.Kind {
	case KindFolder:
		children := nonNil(n.Children)
		// omitempty would drop an empty slice; marshal the folder by hand.
		return json.Marshal(struct {
			Name     string  `json:"name"`
			Type     Kind    `json:"type"`
			Children []*Node `json:"children"`
		}{n.Name, n.Kind, children})
	case KindFile:
		content := n.Content
		w.Content = &content
	}
	return json.Marshal(w)
}

// UnmarshalJSON ingests a single node document, validating its shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Ingest(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// IngestOptions tunes ingestion.
type IngestOptions struct {
	// RejectDuplicates fails ingestion when two siblings share a name.
	RejectDuplicates bool
}

// Ingest validates a JSON tree document and converts it into a Node.
func Ingest(data []byte) (*Node, error) {
	return IngestWithOptions(data, IngestOptions{})
}

// IngestWithOptions is Ingest with explicit options.
func IngestWithOptions(data []byte, opts IngestOptions) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &PathError{Op: "ingest", Path: "", Err: fmt.Errorf("%w: %v", ErrMalformedInput, err)}
	}
	return FromValueWithOptions(v, opts)
}

// FromValue converts an already decoded JSON value into a Node.
func FromValue(v any) (*Node, error) {
	return FromValueWithOptions(v, IngestOptions{})
}

// FromValueWithOptions is FromValue with explicit options.
func FromValueWithOptions(v any, opts IngestOptions) (*Node, error) {
	n, err := fromValue(v, "")
	if err != nil {
		return nil, err
	}
	if opts.RejectDuplicates {
		if err := Validate(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func malformed(pointer, format string, args ...any) error {
	if pointer == "" {
		pointer = "/"
	}
	return &PathError{
		Op:   "ingest",
		Path: pointer,
		Err:  fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...)),
	}
}

func fromValue(v any, pointer string) (*Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(pointer, "node must be an object")
	}
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return nil, malformed(pointer, "missing name")
	}
	if !ValidName(name) {
		return nil, malformed(pointer, "name %q is not a single path segment", name)
	}
	typ, _ := obj["type"].(string)
	switch Kind(typ) {
	case KindFolder:
		n := &Node{Name: name, Kind: KindFolder, Children: []*Node{}}
		raw, present := obj["children"]
		if !present || raw == nil {
			return n, nil
		}
		items, ok := raw.([]any)
		if !ok {
			return nil, malformed(pointer, "children of %q must be an array", name)
		}
		for i, item := range items {
			child, err := fromValue(item, pointer+"/children/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	case KindFile:
		n := &Node{Name: name, Kind: KindFile}
		raw, present := obj["content"]
		if !present || raw == nil {
			return n, nil
		}
		content, ok := raw.(string)
		if !ok {
			return nil, malformed(pointer, "content of %q must be a string", name)
		}
		n.Content = content
		return n, nil
	default:
		return nil, malformed(pointer, "unknown type %q", typ)
	}
}

// Egest serializes a tree into the wire shape.
func Egest(root *Node) ([]byte, error) {
	if root == nil {
		return nil, &PathError{Op: "egest", Path: "", Err: ErrMalformedInput}
	}
	return json.Marshal(root)
}
