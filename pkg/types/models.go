package types

import (
	"project-scaffold-web/pkg/filetree"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Fallback bool        `json:"fallback,omitempty"`
	Details  interface{} `json:"details,omitempty"`
}

// FileContent represents a file's content and metadata
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ProcessResult represents the result of importing files into a tree
type ProcessResult struct {
	Tree         *filetree.Node         `json:"tree"`
	FileContents map[string]FileContent `json:"file_contents"`
	Skipped      []string               `json:"skipped,omitempty"`
}

// Document represents a generated documentation file
type Document struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Type    string `json:"type"` // e.g., "readme", "api", "components", "setup", "changelog"
}

// ComponentInfo describes a source file picked up by the analysers
type ComponentInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ProjectAnalysis summarizes a tree for the documentation and test generators
type ProjectAnalysis struct {
	Components   []ComponentInfo `json:"components"`
	BackendFiles []ComponentInfo `json:"backend_files,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Stats        filetree.Stats  `json:"stats"`
	GeneratedAt  string          `json:"generated_at"`
}

// TreeListing is one entry of a folder listing
type TreeListing struct {
	Name string        `json:"name"`
	Type filetree.Kind `json:"type"`
	Path string        `json:"path"`
}

// List returns the direct children of a folder as listing entries
func List(folder *filetree.Node, folderPath string) []TreeListing {
	if !folder.IsFolder() {
		return nil
	}
	out := make([]TreeListing, 0, len(folder.Children))
	for _, c := range folder.Children {
		if c == nil {
			continue
		}
		out = append(out, TreeListing{Name: c.Name, Type: c.Kind, Path: filetree.JoinPath(folderPath, c.Name)})
	}
	return out
}
