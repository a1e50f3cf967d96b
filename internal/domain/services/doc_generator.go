package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/types"
)

// DocsFolder 文档写入的目录名
const DocsFolder = "docs"

var routePattern = regexp.MustCompile(`(?:app|router)\.(get|post|put|patch|delete)\(\s*['"]([^'"]+)['"]`)

// DocGenerator 根据构思和文件树生成项目文档，不依赖模型
type DocGenerator struct {
	now func() time.Time
}

// NewDocGenerator 创建文档生成器
func NewDocGenerator() *DocGenerator {
	return &DocGenerator{now: time.Now}
}

// IsComponentFile 组件文档收集的文件
func IsComponentFile(name, _, _ string) bool {
	return strings.HasSuffix(name, ".jsx") || strings.HasSuffix(name, ".js")
}

// IsBackendFile 后端接口文件
func IsBackendFile(_, path, _ string) bool {
	if !strings.HasSuffix(path, ".js") && !strings.HasSuffix(path, ".ts") {
		return false
	}
	for _, seg := range filetree.SplitPath(path) {
		switch seg {
		case "backend", "server", "routes", "api", "controllers":
			return true
		}
	}
	return false
}

// Analyze 汇总文件树中的组件、后端文件和依赖
func (g *DocGenerator) Analyze(root *filetree.Node) *types.ProjectAnalysis {
	analysis := &types.ProjectAnalysis{
		Stats:       filetree.Summarize(root),
		GeneratedAt: g.now().UTC().Format(time.RFC3339),
	}
	for _, e := range filetree.Collect(root, IsComponentFile) {
		analysis.Components = append(analysis.Components, types.ComponentInfo{Name: baseName(e.Name), Path: e.Path})
	}
	for _, e := range filetree.Collect(root, IsBackendFile) {
		analysis.BackendFiles = append(analysis.BackendFiles, types.ComponentInfo{Name: e.Name, Path: e.Path})
	}
	analysis.Dependencies = packageDependencies(root)
	return analysis
}

// Generate 生成全部文档
func (g *DocGenerator) Generate(ideation *models.Ideation, root *filetree.Node) *models.DocumentationSet {
	if ideation == nil {
		ideation = &models.Ideation{ProjectName: "Project"}
	}
	return &models.DocumentationSet{
		Readme:        g.readme(ideation),
		APIDocs:       g.apiDocs(root),
		ComponentDocs: g.componentDocs(root),
		SetupGuide:    g.setupGuide(ideation, root),
		Changelog:     g.changelog(ideation),
	}
}

// AttachDocs 把文档写入 docs/ 目录，已有的 docs 目录会被整体替换
func (g *DocGenerator) AttachDocs(root *filetree.Node, docs *models.DocumentationSet) (*filetree.Node, error) {
	folder := filetree.NewFolder(DocsFolder,
		filetree.NewFile("README.md", docs.Readme),
		filetree.NewFile("API.md", docs.APIDocs),
		filetree.NewFile("COMPONENTS.md", docs.ComponentDocs),
		filetree.NewFile("SETUP.md", docs.SetupGuide),
		filetree.NewFile("CHANGELOG.md", docs.Changelog),
	)
	return filetree.ReplaceSubtree(root, DocsFolder, folder)
}

// Blueprint 生成可下载的项目蓝图
func (g *DocGenerator) Blueprint(ideation *models.Ideation, root *filetree.Node) string {
	var buf bytes.Buffer
	name := "Project"
	if ideation != nil && ideation.ProjectName != "" {
		name = ideation.ProjectName
	}
	fmt.Fprintf(&buf, "# %s\n\n", name)
	if ideation != nil {
		fmt.Fprintf(&buf, "## Description\n\n%s\n\n", ideation.Description)
		buf.WriteString("## Features\n\n")
		for _, f := range ideation.Features {
			fmt.Fprintf(&buf, "- %s\n", f)
		}
		buf.WriteString("\n## Tech Stack\n\n")
		writeStack(&buf, ideation.TechStack)
	}
	if root != nil {
		buf.WriteString("\n## Structure\n\n```\n")
		buf.WriteString(filetree.Render(root))
		buf.WriteString("```\n")
	}
	return buf.String()
}

func (g *DocGenerator) readme(ideation *models.Ideation) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n%s\n\n", ideation.ProjectName, ideation.Description)

	buf.WriteString("## ✨ Features\n\n")
	for _, f := range ideation.Features {
		fmt.Fprintf(&buf, "- **%s** - %s\n", firstWord(f), f)
	}

	buf.WriteString("\n## 🚀 Quick Start\n\n```bash\nnpm install\nnpm start\n```\n\nVisit http://localhost:3000\n\n")
	buf.WriteString("## 📋 Requirements\n\n- Node.js 14+\n- npm or yarn\n\n")

	buf.WriteString("## 🛠️ Tech Stack\n\n")
	writeStack(&buf, ideation.TechStack)

	cs := ideation.ColorScheme
	fmt.Fprintf(&buf, "\n## 🎨 Design System\n\n- Primary Color: %s\n- Secondary Color: %s\n- Accent Color: %s\n\n", cs.Primary, cs.Secondary, cs.Accent)
	fmt.Fprintf(&buf, "## 🎯 Target Audience\n\n%s\n\n", ideation.TargetAudience)
	fmt.Fprintf(&buf, "## 💡 Unique Selling Point\n\n%s\n\n", ideation.UniqueSellingPoint)

	buf.WriteString("## 📝 User Flow\n\n")
	for i, step := range ideation.UserFlow {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, step)
	}
	buf.WriteString("\n---\n\nGenerated with AI Multi-Agent Platform ✨\n")
	return buf.String()
}

func (g *DocGenerator) apiDocs(root *filetree.Node) string {
	var buf bytes.Buffer
	buf.WriteString("# API Documentation\n\n## Overview\n\nThis document describes the API surface of the project.\n\n")
	buf.WriteString("## Core Functions\n\n### useState\n\nState management hook for React components.\n\n")
	buf.WriteString("```javascript\nconst [state, setState] = useState(initialValue);\n```\n\n")
	buf.WriteString("### useEffect\n\nSide effects management.\n\n")
	buf.WriteString("```javascript\nuseEffect(() => {\n  // Effect logic\n}, [dependencies]);\n```\n\n")

	backend := filetree.Collect(root, IsBackendFile)
	if len(backend) == 0 {
		buf.WriteString("## Endpoints\n\nNo backend files were found in this project.\n")
		return buf.String()
	}
	buf.WriteString("## Endpoints\n")
	for _, e := range backend {
		fmt.Fprintf(&buf, "\n### `%s`\n\n", e.Path)
		routes := routePattern.FindAllStringSubmatch(e.Content, -1)
		if len(routes) == 0 {
			buf.WriteString("No routes declared.\n")
			continue
		}
		for _, r := range routes {
			fmt.Fprintf(&buf, "- `%s %s`\n", strings.ToUpper(r[1]), r[2])
		}
	}
	buf.WriteString("\n---\n\nFor more information, check the README.\n")
	return buf.String()
}

func (g *DocGenerator) componentDocs(root *filetree.Node) string {
	var buf bytes.Buffer
	buf.WriteString("# Component Documentation\n\n## Overview\n\nThis section documents all React components in the project.\n")
	for _, e := range filetree.Collect(root, IsComponentFile) {
		name := baseName(e.Name)
		fmt.Fprintf(&buf, "\n### %s\n\n**Location:** `%s`\n\n**Description:** Component for %s\n\n", name, e.Path, name)
		buf.WriteString("**Props:**\n- Standard React props supported\n\n")
		fmt.Fprintf(&buf, "**Example:**\n```jsx\nimport %s from '%s';\n\n<%s prop=\"value\" />\n```\n\n---\n", name, e.Path, name)
	}
	buf.WriteString("\n## Best Practices\n\n1. Keep components small and focused\n2. Use proper PropTypes validation\n3. Memoize expensive computations\n4. Write meaningful JSDoc comments\n")
	return buf.String()
}

func (g *DocGenerator) setupGuide(ideation *models.Ideation, root *filetree.Node) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Setup Guide: %s\n\n", ideation.ProjectName)
	buf.WriteString("## Installation\n\n### Prerequisites\n- Node.js 14 or higher\n- npm or yarn package manager\n\n")
	buf.WriteString("### Step 1: Install Dependencies\n\n```bash\nnpm install\n```\n\n")
	if deps := packageDependencies(root); len(deps) > 0 {
		fmt.Fprintf(&buf, "Dependencies: %s\n\n", strings.Join(deps, ", "))
	}
	buf.WriteString("### Step 2: Environment Setup\n\nCreate a `.env` file in the root directory:\n\n```\nREACT_APP_API_URL=http://localhost:5001\n```\n\n")
	buf.WriteString("### Step 3: Start Development Server\n\n```bash\nnpm start\n```\n\nThe app will open at http://localhost:3000\n\n")
	buf.WriteString("## Running Tests\n\n```bash\nnpm test\n```\n\n")
	buf.WriteString("## Building for Production\n\n```bash\nnpm run build\n```\n\n")
	buf.WriteString("## Troubleshooting\n\n### Port Already in Use\n\n```bash\nPORT=3001 npm start\n```\n\n")
	buf.WriteString("### Module Not Found\n\n```bash\nrm -rf node_modules package-lock.json\nnpm install\n```\n")
	return buf.String()
}

func (g *DocGenerator) changelog(ideation *models.Ideation) string {
	var buf bytes.Buffer
	buf.WriteString("# Changelog\n\n## Version 1.0.0 - Initial Release\n\n### Features\n")
	for _, f := range ideation.Features {
		fmt.Fprintf(&buf, "- %s\n", f)
	}
	buf.WriteString("\n### Tech Stack\n")
	fmt.Fprintf(&buf, "- Frontend: %s\n", strings.Join(ideation.TechStack.Frontend, ", "))
	fmt.Fprintf(&buf, "- Backend: %s\n", strings.Join(ideation.TechStack.Backend, ", "))
	buf.WriteString("\n### Initial Setup\n- Project structure created\n- Dependencies configured\n- Development environment ready\n\n")
	buf.WriteString("### Known Issues\nNone at this time\n")
	return buf.String()
}

func writeStack(buf *bytes.Buffer, stack models.TechStack) {
	fmt.Fprintf(buf, "**Frontend:** %s\n", strings.Join(stack.Frontend, ", "))
	fmt.Fprintf(buf, "**Backend:** %s\n", strings.Join(stack.Backend, ", "))
	if len(stack.Database) > 0 {
		fmt.Fprintf(buf, "**Database:** %s\n", strings.Join(stack.Database, ", "))
	}
	if len(stack.Other) > 0 {
		fmt.Fprintf(buf, "**Other:** %s\n", strings.Join(stack.Other, ", "))
	}
}

// packageDependencies 读取根目录 package.json 中的依赖名，解析失败时返回空
func packageDependencies(root *filetree.Node) []string {
	n, err := filetree.FindByPath(root, "package.json")
	if err != nil || !n.IsFile() {
		return nil
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(n.Content), &pkg); err != nil {
		return nil
	}
	deps := make([]string, 0, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for name := range pkg.Dependencies {
		deps = append(deps, name)
	}
	for name := range pkg.DevDependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// baseName 去掉 .js/.jsx/.ts/.tsx 扩展名
func baseName(name string) string {
	for _, ext := range []string{".test.jsx", ".test.js", ".jsx", ".tsx", ".js", ".ts"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
