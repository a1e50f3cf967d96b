package services

import (
	"strings"
	"testing"
	"time"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/filetree"
)

func sampleIdeation() *models.Ideation {
	return &models.Ideation{
		ProjectName: "TaskFlow",
		Description: "A tiny task board.",
		Features:    []string{"Drag and drop cards", "Offline mode"},
		TechStack: models.TechStack{
			Frontend: []string{"React", "Tailwind CSS"},
			Backend:  []string{"Express"},
		},
		UserFlow: []string{"Sign in", "Create board"},
	}
}

func sampleProject() *filetree.Node {
	return filetree.NewFolder(filetree.RootName,
		filetree.NewFile("package.json", `{"dependencies":{"react":"^18","axios":"^1"},"devDependencies":{"jest":"^29"}}`),
		filetree.NewFolder("src",
			filetree.NewFile("App.jsx", "import React, { useState } from 'react';\nexport default function App() {\n  const [n, setN] = useState(0);\n  return <div>{n}</div>;\n}\n"),
			filetree.NewFile("App.css", "body { color: red; }"),
			filetree.NewFolder("hooks",
				filetree.NewFile("useTasks.js", "export default function useTasks() {\n  return [];\n}"),
			),
			filetree.NewFolder("utils",
				filetree.NewFile("format.js", "export const format = (s) => s;"),
			),
		),
		filetree.NewFolder("backend",
			filetree.NewFolder("routes",
				filetree.NewFile("tasks.js", "router.get('/api/tasks', list);\nrouter.post('/api/tasks', create);"),
			),
		),
	)
}

func TestDocGeneratorGenerate(t *testing.T) {
	g := NewDocGenerator()
	docs := g.Generate(sampleIdeation(), sampleProject())

	for _, want := range []string{"# TaskFlow", "- **Drag** - Drag and drop cards", "**Frontend:** React, Tailwind CSS", "1. Sign in"} {
		if !strings.Contains(docs.Readme, want) {
			t.Errorf("README missing %q", want)
		}
	}
	for _, want := range []string{"`GET /api/tasks`", "`POST /api/tasks`", "project-root/backend/routes/tasks.js"} {
		if !strings.Contains(docs.APIDocs, want) {
			t.Errorf("API docs missing %q", want)
		}
	}
	if !strings.Contains(docs.ComponentDocs, "### App") || !strings.Contains(docs.ComponentDocs, "### useTasks") {
		t.Errorf("component docs missing components:\n%s", docs.ComponentDocs)
	}
	if !strings.Contains(docs.SetupGuide, "Dependencies: axios, jest, react") {
		t.Errorf("setup guide missing dependencies:\n%s", docs.SetupGuide)
	}
	if !strings.Contains(docs.Changelog, "- Offline mode") {
		t.Errorf("changelog missing feature")
	}
}

func TestDocGeneratorNilIdeation(t *testing.T) {
	docs := NewDocGenerator().Generate(nil, filetree.NewFolder(filetree.RootName))
	if !strings.HasPrefix(docs.Readme, "# Project") {
		t.Errorf("README = %q", docs.Readme[:20])
	}
	if !strings.Contains(docs.APIDocs, "No backend files") {
		t.Errorf("expected empty endpoint section")
	}
}

func TestDocGeneratorAnalyze(t *testing.T) {
	g := NewDocGenerator()
	g.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	a := g.Analyze(sampleProject())

	if a.GeneratedAt != "2024-01-02T03:04:05Z" {
		t.Errorf("GeneratedAt = %q", a.GeneratedAt)
	}
	if len(a.Components) != 4 {
		t.Errorf("components = %v, want 4", a.Components)
	}
	if len(a.BackendFiles) != 1 || a.BackendFiles[0].Name != "tasks.js" {
		t.Errorf("backend files = %v", a.BackendFiles)
	}
	if a.Stats.Files != 6 {
		t.Errorf("Stats.Files = %d, want 6", a.Stats.Files)
	}
}

func TestAttachDocsReplacesExisting(t *testing.T) {
	g := NewDocGenerator()
	root := sampleProject()
	docs := g.Generate(sampleIdeation(), root)

	once, err := g.AttachDocs(root, docs)
	if err != nil {
		t.Fatal(err)
	}
	if filetree.Exists(root, "docs") {
		t.Fatal("input tree was mutated")
	}
	twice, err := g.AttachDocs(once, docs)
	if err != nil {
		t.Fatal(err)
	}
	if !filetree.Equal(once, twice) {
		t.Error("attaching docs twice should replace the folder, not duplicate it")
	}
	for _, name := range []string{"README.md", "API.md", "COMPONENTS.md", "SETUP.md", "CHANGELOG.md"} {
		if !filetree.Exists(twice, "docs/"+name) {
			t.Errorf("docs/%s missing", name)
		}
	}
}

func TestBlueprint(t *testing.T) {
	md := NewDocGenerator().Blueprint(sampleIdeation(), sampleProject())
	for _, want := range []string{"# TaskFlow", "## Features", "- Offline mode", "└── project-root"} {
		if !strings.Contains(md, want) {
			t.Errorf("blueprint missing %q", want)
		}
	}
}
