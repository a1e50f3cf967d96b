package filetree

import "strings"

// DefaultEntryCandidates are the preview entry paths tried in order before
// falling back to a scan.
var DefaultEntryCandidates = []string{
	"src/App.jsx",
	"src/App.js",
	"project-root/src/App.jsx",
	"project-root/src/App.js",
}

// ResolveEntryFile finds the file that drives the live preview. The fixed
// candidates win in order; otherwise the first path (sorted) containing
// App.jsx or App.js with non-empty content is used.
func ResolveEntryFile(files map[string]string) (string, string, error) {
	return ResolveEntryFileWith(files, DefaultEntryCandidates)
}

// ResolveEntryFileWith is ResolveEntryFile with a custom candidate list.
func ResolveEntryFileWith(files map[string]string, candidates []string) (string, string, error) {
	for _, p := range candidates {
		if content := files[p]; content != "" {
			return p, content, nil
		}
	}
	for _, p := range Paths(files) {
		if isEntryName(p) && files[p] != "" {
			return p, files[p], nil
		}
	}
	return "", "", ErrNoEntryFile
}

// ResolveEntry resolves the entry file of a tree. The fallback scan follows
// traversal order instead of sorted order.
func ResolveEntry(root *Node, candidates []string) (string, string, error) {
	files := FlatMap(root)
	for _, p := range candidates {
		if content := files[p]; content != "" {
			return p, content, nil
		}
	}
	for p, content := range Flatten(root) {
		if isEntryName(p) && content != "" {
			return p, content, nil
		}
	}
	return "", "", ErrNoEntryFile
}

// "App.js" is a substring of "App.jsx", so one check covers both.
func isEntryName(path string) bool {
	return strings.Contains(path, "App.js")
}
