package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/infrastructure/memory"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
)

func newTestProjects(t *testing.T, yaml string) *ProjectService {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	return NewProjectService(cfg, memory.NewProjectStore())
}

func TestCreateProject(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateProjectInput
		want error
	}{
		{"default skeleton", CreateProjectInput{Name: "Demo"}, nil},
		{"name from ideation", CreateProjectInput{Ideation: &models.Ideation{ProjectName: "From Idea"}}, nil},
		{"missing name", CreateProjectInput{}, ErrInvalidProject},
		{"bad status", CreateProjectInput{Name: "x", Status: "archived"}, ErrInvalidProject},
		{"file root", CreateProjectInput{Name: "x", Tree: filetree.NewFile("a.js", "")}, filetree.ErrNotAFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.Create(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err != nil {
				return
			}
			if p.ID == "" || p.Status != models.StatusDraft {
				t.Errorf("project = %+v", p)
			}
			if filetree.CountFiles(p.Tree) != 5 {
				t.Errorf("files = %d", filetree.CountFiles(p.Tree))
			}
		})
	}
}

func TestTreeOperations(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	p, err := s.Create(ctx, CreateProjectInput{Name: "Demo"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.InsertNode(ctx, p.ID, "project-root/src", filetree.NewFile("x.js", "export const x = 1;")); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	files, err := s.Files(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if files["project-root/src/x.js"] != "export const x = 1;" {
		t.Errorf("flat map = %v", files)
	}

	if _, err := s.UpdateContent(ctx, p.ID, "project-root/src/x.js", "a\nb"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RenameNode(ctx, p.ID, "project-root/src/x.js", "y.js"); err != nil {
		t.Fatal(err)
	}
	n, err := s.Node(ctx, p.ID, "project-root/src/y.js")
	if err != nil || n.Content != "a\nb" {
		t.Fatalf("Node = %+v, %v", n, err)
	}
	if _, err := s.RemoveNode(ctx, p.ID, "project-root/src/y.js"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Node(ctx, p.ID, "project-root/src/y.js"); !errors.Is(err, filetree.ErrPathNotFound) {
		t.Errorf("after remove err = %v", err)
	}

	if _, err := s.ReplaceNode(ctx, p.ID, "project-root/public", filetree.NewFolder("static")); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestTreeOperationErrorsLeaveTreeUnchanged(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateProjectInput{Name: "Demo"})

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"insert under file", func() error {
			_, err := s.InsertNode(ctx, p.ID, "project-root/package.json", filetree.NewFile("a", ""))
			return err
		}, filetree.ErrNotAFolder},
		{"update folder", func() error {
			_, err := s.UpdateContent(ctx, p.ID, "project-root/src", "x")
			return err
		}, filetree.ErrNotAFile},
		{"rename to slash", func() error {
			_, err := s.RenameNode(ctx, p.ID, "project-root/src", "a/b")
			return err
		}, filetree.ErrInvalidName},
		{"replace root with file", func() error {
			_, err := s.ReplaceNode(ctx, p.ID, "project-root", filetree.NewFile("evil.txt", "y"))
			return err
		}, filetree.ErrNotAFolder},
		{"replace with bad name", func() error {
			_, err := s.ReplaceNode(ctx, p.ID, "project-root/src/App.jsx", filetree.NewFile("../x.js", ""))
			return err
		}, filetree.ErrInvalidName},
		{"missing path", func() error {
			_, err := s.RemoveNode(ctx, p.ID, "project-root/nope")
			return err
		}, filetree.ErrPathNotFound},
		{"missing project", func() error {
			_, err := s.RemoveNode(ctx, "nope", "project-root/src")
			return err
		}, models.ErrProjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, _ := s.Get(ctx, p.ID)
	if !filetree.Equal(got.Tree, p.Tree) {
		t.Error("tree changed after failed operations")
	}
}

func TestRejectDuplicateNames(t *testing.T) {
	s := newTestProjects(t, "tree:\n  reject_duplicate_names: true\n")
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateProjectInput{Name: "Demo"})

	_, err := s.InsertNode(ctx, p.ID, "project-root/src", filetree.NewFile("App.jsx", ""))
	if !errors.Is(err, filetree.ErrDuplicateName) {
		t.Errorf("err = %v", err)
	}

	if _, err := s.ReplaceNode(ctx, p.ID, "project-root/src/App.jsx", filetree.NewFile("index.js", "")); !errors.Is(err, filetree.ErrDuplicateName) {
		t.Errorf("replace err = %v", err)
	}
	if _, err := s.ReplaceNode(ctx, p.ID, "src/App.jsx", filetree.NewFile("App.jsx", "new")); err != nil {
		t.Errorf("same-name replace err = %v", err)
	}
	if _, err := s.ReplaceNode(ctx, p.ID, "project-root", filetree.NewFolder("project-root")); err != nil {
		t.Errorf("root replace err = %v", err)
	}

	dup := filetree.NewFolder("project-root", filetree.NewFile("a", ""), filetree.NewFile("a", ""))
	if _, err := s.Create(ctx, CreateProjectInput{Name: "Dup", Tree: dup}); !errors.Is(err, filetree.ErrDuplicateName) {
		t.Errorf("create err = %v", err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateProjectInput{Name: "Demo"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "f" + string(rune('a'+i)) + ".js"
			if _, err := s.InsertNode(ctx, p.ID, "project-root/src", filetree.NewFile(name, "")); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	stats, _ := s.Stats(ctx, p.ID)
	if stats.Files != 25 {
		t.Errorf("files = %d, want 25", stats.Files)
	}
}

func TestListAndUpdate(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	a, _ := s.Create(ctx, CreateProjectInput{Owner: "u1", Name: "Task Board"})
	_, _ = s.Create(ctx, CreateProjectInput{Owner: "u1", Name: "Weather"})
	_, _ = s.Create(ctx, CreateProjectInput{Owner: "u2", Name: "Tasks Two"})

	ready := models.StatusReady
	if _, err := s.Update(ctx, a.ID, UpdateProjectInput{Status: &ready}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		filter models.ProjectFilter
		want   int
	}{
		{models.ProjectFilter{}, 3},
		{models.ProjectFilter{Owner: "u1"}, 2},
		{models.ProjectFilter{Query: "TASK"}, 2},
		{models.ProjectFilter{Owner: "u1", Status: models.StatusReady}, 1},
	}
	for _, tt := range tests {
		got, err := s.List(ctx, tt.filter)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%+v) = %d, want %d", tt.filter, len(got), tt.want)
		}
	}

	if _, err := s.List(ctx, models.ProjectFilter{Status: "bogus"}); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("bogus status err = %v", err)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, a.ID); !errors.Is(err, models.ErrProjectNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestDocsTestsAndPreview(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateProjectInput{Ideation: &models.Ideation{ProjectName: "Demo"}})

	docs, p2, err := s.GenerateDocs(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(docs.Readme, "Demo") || !filetree.Exists(p2.Tree, "project-root/docs/README.md") {
		t.Errorf("docs not attached")
	}

	suite, p3, err := s.GenerateTests(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(suite.Tests) == 0 || !filetree.Exists(p3.Tree, "project-root/__tests__/jest.config.js") {
		t.Errorf("tests not attached: %+v", suite.Tests)
	}

	preview, err := s.Preview(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if preview.EntryPath != "project-root/src/App.jsx" {
		t.Errorf("entry = %s", preview.EntryPath)
	}

	if _, err := s.RemoveNode(ctx, p.ID, "project-root/src/App.jsx"); err != nil {
		t.Fatal(err)
	}
	_, err = s.Preview(ctx, p.ID)
	var noEntry *services.NoEntryError
	if !errors.As(err, &noEntry) || !errors.Is(err, filetree.ErrNoEntryFile) {
		t.Fatalf("err = %v", err)
	}
	if len(noEntry.Available) == 0 {
		t.Error("missing available files")
	}

	md, _, err := s.Blueprint(ctx, p.ID)
	if err != nil || !strings.Contains(md, "## Structure") {
		t.Errorf("blueprint = %q, %v", md, err)
	}
}

func TestExecKeepsSessionPerProject(t *testing.T) {
	s := newTestProjects(t, "")
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateProjectInput{Name: "Demo"})

	res, err := s.Exec(ctx, p.ID, "dev", "cd src")
	if err != nil {
		t.Fatal(err)
	}
	if res.Cwd != "/project-root/src" {
		t.Errorf("cwd = %s", res.Cwd)
	}
	res, _ = s.Exec(ctx, p.ID, "dev", "cat App.jsx")
	if len(res.Lines) < 2 || res.Lines[1].Type != services.LineOutput {
		t.Errorf("cat lines = %+v", res.Lines)
	}

	if _, err := s.Exec(ctx, "missing", "dev", "ls"); !errors.Is(err, models.ErrProjectNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestFileServiceExportRoundTrip(t *testing.T) {
	cfg := config.Default()
	fs := NewFileService(services.NewFileProcessor(cfg), nil)
	var buf bytes.Buffer
	if err := fs.ExportZip(filetree.DefaultSkeleton("demo"), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty archive")
	}
	out := fs.FormatOutput(filetree.DefaultSkeleton("demo"))
	if !strings.Contains(out, "=== project-root/src/App.jsx ===") {
		t.Errorf("FormatOutput = %s", out)
	}
}
