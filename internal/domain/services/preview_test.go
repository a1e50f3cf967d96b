package services

import (
	"errors"
	"strings"
	"testing"

	"project-scaffold-web/pkg/filetree"
)

func TestCleanComponentCode(t *testing.T) {
	in := `import React, { useState } from 'react';
import {
  Foo,
  Bar,
} from './parts';
import './App.css';
const { useState, useEffect } = React;

export default function App() {
  return <div />;
}
export { Foo };
`
	got := CleanComponentCode(in)
	for _, bad := range []string{"import", "export", "= React"} {
		if strings.Contains(got, bad) {
			t.Errorf("cleaned code still contains %q:\n%s", bad, got)
		}
	}
	if !strings.Contains(got, "function App()") {
		t.Errorf("component declaration lost:\n%s", got)
	}

	got = CleanComponentCode("const App = () => <div />;\nexport default App;\n")
	if strings.TrimSpace(got) != "const App = () => <div />;" {
		t.Errorf("got %q", got)
	}
}

func TestPreviewRender(t *testing.T) {
	root := filetree.NewFolder(filetree.RootName,
		filetree.NewFolder("src",
			filetree.NewFile("App.jsx", "import './App.css';\nexport default function App() { return <h1>Hi</h1>; }"),
			filetree.NewFile("App.css", "h1 { color: rebeccapurple; }"),
			filetree.NewFile("index.css", "body { margin: 0; }"),
		),
	)
	p, err := NewPreviewRenderer(nil).Render(root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if p.EntryPath != "project-root/src/App.jsx" {
		t.Errorf("EntryPath = %q", p.EntryPath)
	}
	for _, want := range []string{
		"https://unpkg.com/react@18/umd/react.development.js",
		"h1 { color: rebeccapurple; }",
		"body { margin: 0; }",
		"function App() { return <h1>Hi</h1>; }",
		"React.createElement(App, null)",
	} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("preview missing %q", want)
		}
	}
	if strings.Index(p.HTML, "body { margin: 0; }") > strings.Index(p.HTML, "rebeccapurple") {
		t.Error("index.css should come before App.css")
	}
}

func TestPreviewNoEntry(t *testing.T) {
	root := filetree.NewFolder(filetree.RootName,
		filetree.NewFile("README.md", "hi"),
		filetree.NewFolder("src", filetree.NewFile("App.jsx", "")),
	)
	_, err := NewPreviewRenderer(nil).Render(root)
	if !errors.Is(err, filetree.ErrNoEntryFile) {
		t.Fatalf("err = %v, want ErrNoEntryFile", err)
	}
	var ne *NoEntryError
	if !errors.As(err, &ne) {
		t.Fatalf("err is %T, want *NoEntryError", err)
	}
	want := []string{"project-root/README.md", "project-root/src/App.jsx"}
	if strings.Join(ne.Available, ",") != strings.Join(want, ",") {
		t.Errorf("Available = %v, want %v", ne.Available, want)
	}
}

func TestPreviewFallbackFollowsTreeOrder(t *testing.T) {
	root := filetree.NewFolder(filetree.RootName,
		filetree.NewFolder("src",
			filetree.NewFile("MainApp.jsx", "function MainApp() { return <main />; }"),
		),
		filetree.NewFolder("legacy",
			filetree.NewFile("OldApp.js", "function OldApp() { return <div />; }"),
		),
	)
	p, err := NewPreviewRenderer(nil).Render(root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if p.EntryPath != "project-root/src/MainApp.jsx" {
		t.Errorf("EntryPath = %q, want the first App file in tree order", p.EntryPath)
	}
	if !strings.Contains(p.HTML, "function MainApp()") {
		t.Error("preview does not contain the chosen entry component")
	}
}
