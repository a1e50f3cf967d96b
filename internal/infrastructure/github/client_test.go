package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		in          string
		owner, repo string
		wantErr     bool
	}{
		{"https://github.com/acme/widgets", "acme", "widgets", false},
		{"https://github.com/acme/widgets.git", "acme", "widgets", false},
		{"git@github.com:acme/widgets.git", "acme", "widgets", false},
		{"https://github.com/acme/widgets/tree/main/src", "acme", "widgets", false},
		{"https://gitlab.com/acme/widgets", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRepoURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.in, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("%s: got %s/%s", tt.in, owner, repo)
		}
	}
}

func TestImportRepoFallsBackToMaster(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/repos/acme/widgets/git/trees/master", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("tree listing should be recursive")
		}
		if r.Header.Get("Authorization") != "token secret" {
			t.Errorf("missing token header")
		}
		fmt.Fprint(w, `{"tree":[
			{"path":"src","type":"tree"},
			{"path":"src/App.jsx","type":"blob","size":30},
			{"path":"README.md","type":"blob","size":6},
			{"path":"assets","type":"tree"},
			{"path":"assets/logo.png","type":"blob","size":4},
			{"path":"node_modules/x.js","type":"blob","size":4}
		]}`)
	})
	mux.HandleFunc("/raw/acme/widgets/master/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/raw/acme/widgets/master/") {
		case "src/App.jsx":
			fmt.Fprint(w, "export default function App() {}")
		case "README.md":
			fmt.Fprint(w, "# demo")
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg, err := config.Parse([]byte(fmt.Sprintf(`
github:
  api_base: %q
  raw_base: %q
excluded_dir_prefixes: ["node_modules/"]
excluded_extensions: [".png"]
text_extensions: [".jsx", ".md"]
`, srv.URL, srv.URL+"/raw")))
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewClient(cfg).ImportRepo(context.Background(), "acme", "widgets", "secret", "")
	if err != nil {
		t.Fatalf("ImportRepo: %v", err)
	}
	files := filetree.FlatMap(res.Tree)
	if files["project-root/src/App.jsx"] != "export default function App() {}" || files["project-root/README.md"] != "# demo" {
		t.Errorf("files = %v", files)
	}
	if len(files) != 2 {
		t.Errorf("got %d files, want 2", len(files))
	}
	if n, err := filetree.FindByPath(res.Tree, "assets"); err != nil || !n.IsFolder() {
		t.Errorf("empty assets folder should be kept: %v", err)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped = %v", res.Skipped)
	}
}

func TestImportRepoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfg, _ := config.Parse([]byte(fmt.Sprintf("github:\n  api_base: %q\n", srv.URL)))
	if _, err := NewClient(cfg).ImportRepo(context.Background(), "a", "b", "", ""); err == nil {
		t.Fatal("expected an error when neither branch exists")
	}
}
