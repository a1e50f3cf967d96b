package filetree

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestIngest(t *testing.T) {
	doc := `{
  "name": "project-root",
  "type": "folder",
  "children": [
    {"name": "src", "type": "folder", "children": [
      {"name": "App.jsx", "type": "file", "content": "export default App;"}
    ]},
    {"name": "empty", "type": "folder"},
    {"name": "notes.md", "type": "file"}
  ]
}`
	root, err := Ingest([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if root.Name != RootName || !root.IsFolder() || len(root.Children) != 3 {
		t.Fatalf("unexpected root: %+v", root)
	}
	empty, _ := FindByPath(root, "empty")
	if empty.Children == nil {
		t.Error("absent children should default to an empty slice")
	}
	notes, _ := FindByPath(root, "notes.md")
	if notes.Content != "" {
		t.Errorf("absent content = %q", notes.Content)
	}
}

func TestIngestMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		frag string
	}{
		{"not json", `{"name":`, ""},
		{"not object", `[1,2]`, "object"},
		{"missing name", `{"type":"folder"}`, "missing name"},
		{"non-string name", `{"name":3,"type":"file"}`, "missing name"},
		{"bad type", `{"name":"x","type":"symlink"}`, "unknown type"},
		{"missing type", `{"name":"x"}`, "unknown type"},
		{"children not array", `{"name":"x","type":"folder","children":{}}`, "must be an array"},
		{"content not string", `{"name":"x","type":"file","content":42}`, "must be a string"},
		{"slash in name", `{"name":"a/b","type":"file"}`, "single path segment"},
		{"nested bad child", `{"name":"r","type":"folder","children":[{"name":"ok","type":"file"},{"type":"file"}]}`, "/children/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest([]byte(tt.doc))
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("err = %v, want ErrMalformedInput", err)
			}
			if tt.frag != "" && !strings.Contains(err.Error(), tt.frag) {
				t.Errorf("err %q does not mention %q", err, tt.frag)
			}
		})
	}
}

func TestIngestNullOptionalFields(t *testing.T) {
	root, err := Ingest([]byte(`{"name":"r","type":"folder","children":[{"name":"a","type":"file","content":null}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 || root.Children[0].Content != "" {
		t.Errorf("unexpected tree %+v", root)
	}
	if _, err := Ingest([]byte(`{"name":"r","type":"folder","children":null}`)); err != nil {
		t.Errorf("null children rejected: %v", err)
	}
}

func TestIngestDuplicates(t *testing.T) {
	doc := []byte(`{"name":"r","type":"folder","children":[{"name":"a","type":"file"},{"name":"a","type":"file"}]}`)
	if _, err := Ingest(doc); err != nil {
		t.Errorf("default ingest should tolerate duplicates: %v", err)
	}
	if _, err := IngestWithOptions(doc, IngestOptions{RejectDuplicates: true}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("strict ingest err = %v, want ErrDuplicateName", err)
	}
}

func TestRoundTrip(t *testing.T) {
	trees := []*Node{
		sampleTree(),
		DefaultSkeleton("demo"),
		NewFolder(RootName),
		{Name: RootName, Kind: KindFolder, Children: []*Node{{Name: "f", Kind: KindFile}}},
	}
	for i, tree := range trees {
		data, err := Egest(tree)
		if err != nil {
			t.Fatalf("tree %d: Egest: %v", i, err)
		}
		back, err := Ingest(data)
		if err != nil {
			t.Fatalf("tree %d: Ingest: %v", i, err)
		}
		if !Equal(tree, back) {
			t.Errorf("tree %d: round trip mismatch\n%s", i, data)
		}
	}
}

func TestEgestShape(t *testing.T) {
	data, err := Egest(NewFolder(RootName, NewFolder("src"), NewFile("a.txt", "")))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"project-root","type":"folder","children":[{"name":"src","type":"folder","children":[]},{"name":"a.txt","type":"file","content":""}]}`
	if string(data) != want {
		t.Errorf("Egest =\n%s\nwant\n%s", data, want)
	}
	if _, err := Egest(nil); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Egest(nil) err = %v", err)
	}
}

func TestNodeUnmarshalJSON(t *testing.T) {
	var payload struct {
		Parent string `json:"parent"`
		Node   *Node  `json:"node"`
	}
	err := json.Unmarshal([]byte(`{"parent":"src","node":{"name":"x.js","type":"file","content":"1"}}`), &payload)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Node == nil || payload.Node.Name != "x.js" || payload.Node.Content != "1" {
		t.Errorf("node = %+v", payload.Node)
	}
	err = json.Unmarshal([]byte(`{"node":{"name":"x.js","type":"weird"}}`), &payload)
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("err = %v, want ErrMalformedInput", err)
	}
}
