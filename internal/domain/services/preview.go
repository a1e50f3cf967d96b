package services

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"text/template"

	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
)

var (
	importFromPattern   = regexp.MustCompile(`import\s+[\s\S]*?from\s+['"][^'"]+['"];?\s*`)
	importBarePattern   = regexp.MustCompile(`import\s+['"][^'"]+['"];?\s*`)
	exportDefaultIdent  = regexp.MustCompile(`export\s+default\s+\w+;?\s*`)
	exportListPattern   = regexp.MustCompile(`export\s+\{[^}]*\};?\s*`)
	reactHookDestructor = regexp.MustCompile(`const\s+\{\s*useState[^}]*\}\s*=\s*React;?\s*`)
	exportDefaultDecl   = regexp.MustCompile(`export\s+default\s+(function|class)\b`)
)

// NoEntryError 没有找到可预览的入口文件
type NoEntryError struct {
	Available []string
}

func (e *NoEntryError) Error() string {
	return fmt.Sprintf("no App.jsx or App.js file found in the project (%d files available)", len(e.Available))
}

func (e *NoEntryError) Unwrap() error { return filetree.ErrNoEntryFile }

// Preview 渲染结果
type Preview struct {
	HTML      string `json:"html"`
	EntryPath string `json:"entryPath"`
}

// PreviewRenderer 把文件树渲染成可放进 iframe 的单页 HTML
type PreviewRenderer struct {
	candidates []string
	page       *template.Template
	assets     previewAssets
}

type previewAssets struct {
	ReactURL    string
	ReactDOMURL string
	BabelURL    string
	TailwindURL string
}

type previewData struct {
	previewAssets
	Title string
	CSS   string
	Code  string
}

// NewPreviewRenderer 创建预览渲染器，cfg 为 nil 时使用默认 CDN 地址
func NewPreviewRenderer(cfg *config.Config) *PreviewRenderer {
	if cfg == nil {
		cfg = config.Default()
	}
	candidates := cfg.GetEntryCandidates()
	if len(candidates) == 0 {
		candidates = filetree.DefaultEntryCandidates
	}
	return &PreviewRenderer{
		candidates: candidates,
		page:       template.Must(template.New("preview").Parse(previewTemplate)),
		assets: previewAssets{
			ReactURL:    cfg.GetPreviewReactURL(),
			ReactDOMURL: cfg.GetPreviewReactDOMURL(),
			BabelURL:    cfg.GetPreviewBabelURL(),
			TailwindURL: cfg.GetPreviewTailwindURL(),
		},
	}
}

// Render 找到入口组件，去掉 import/export 并内联样式
func (r *PreviewRenderer) Render(root *filetree.Node) (*Preview, error) {
	files := filetree.FlatMap(root)
	entryPath, code, err := filetree.ResolveEntry(root, r.candidates)
	if err != nil {
		if errors.Is(err, filetree.ErrNoEntryFile) {
			return nil, &NoEntryError{Available: filetree.Paths(files)}
		}
		return nil, err
	}

	var buf bytes.Buffer
	err = r.page.Execute(&buf, previewData{
		previewAssets: r.assets,
		Title:         "Live Preview",
		CSS:           collectCSS(files, entryPath),
		Code:          CleanComponentCode(code),
	})
	if err != nil {
		return nil, fmt.Errorf("渲染预览失败: %w", err)
	}
	return &Preview{HTML: buf.String(), EntryPath: entryPath}, nil
}

// CleanComponentCode 去掉 import/export，使代码能在全局 React 环境中直接运行
func CleanComponentCode(code string) string {
	code = importFromPattern.ReplaceAllString(code, "")
	code = importBarePattern.ReplaceAllString(code, "")
	code = exportDefaultDecl.ReplaceAllString(code, "$1")
	code = exportDefaultIdent.ReplaceAllString(code, "")
	code = exportListPattern.ReplaceAllString(code, "")
	code = reactHookDestructor.ReplaceAllString(code, "")
	return code
}

// collectCSS 依次查找入口同目录以及固定位置的 index.css 和 App.css
func collectCSS(files map[string]string, entryPath string) string {
	dir := path.Dir(entryPath)
	var buf bytes.Buffer
	for _, name := range []string{"index.css", "App.css"} {
		for _, p := range []string{path.Join(dir, name), "src/" + name, filetree.RootName + "/src/" + name} {
			if css, ok := files[p]; ok && css != "" {
				buf.WriteString(css)
				buf.WriteString("\n")
				break
			}
		}
	}
	return buf.String()
}

const previewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <script crossorigin src="{{.ReactURL}}"></script>
  <script crossorigin src="{{.ReactDOMURL}}"></script>
  <script src="{{.BabelURL}}"></script>
  <script src="{{.TailwindURL}}"></script>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
      -webkit-font-smoothing: antialiased;
    }
    #root { min-height: 100vh; }
{{.CSS}}
  </style>
</head>
<body>
  <div id="root"></div>
  <script type="text/babel" data-type="module">
    const { useState, useEffect, useRef, useCallback, useMemo, useReducer, useContext, createContext } = React;

{{.Code}}

    const rootElement = document.getElementById('root');
    if (rootElement) {
      try {
        ReactDOM.createRoot(rootElement).render(React.createElement(App, null));
      } catch (err) {
        rootElement.innerHTML = '<div style="padding: 40px; font-family: monospace; background: #fee;"><h3>Preview Error</h3><p>' + err.message + '</p></div>';
      }
    }
  </script>
  <script>
    window.addEventListener('error', function (event) {
      const rootElement = document.getElementById('root');
      if (rootElement && !rootElement.innerHTML) {
        rootElement.innerHTML = '<div style="padding: 40px; font-family: monospace; background: #fee;"><h3>Runtime Error</h3><p>' + event.message + '</p></div>';
      }
    });
  </script>
</body>
</html>
`
