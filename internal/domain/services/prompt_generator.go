package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/filetree"
)

// PromptGenerator 提示词生成服务
type PromptGenerator struct {
	rootName string
}

// NewPromptGenerator 创建提示词生成服务
func NewPromptGenerator(rootName string) *PromptGenerator {
	if rootName == "" {
		rootName = filetree.RootName
	}
	return &PromptGenerator{rootName: rootName}
}

// IdeationPrompt 生成项目构思提示词
func (pg *PromptGenerator) IdeationPrompt(userPrompt string) models.Prompt {
	var buf bytes.Buffer
	buf.WriteString("You are a product ideation specialist. Based on the following user prompt, create a detailed project ideation plan.\n\n")
	fmt.Fprintf(&buf, "User Prompt: %q\n\n", userPrompt)
	buf.WriteString("CRITICAL: Return ONLY valid JSON (no markdown, no explanations, no code blocks).\n\n")
	buf.WriteString("EXACT FORMAT:\n")
	buf.WriteString(ideationExample())

	return models.Prompt{
		Text: buf.String(),
		Config: models.GenerationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}
}

// CodePrompt 根据构思生成整个项目文件树的提示词
func (pg *PromptGenerator) CodePrompt(ideation *models.Ideation, userPrompt string) (models.Prompt, error) {
	ideationJSON, err := json.MarshalIndent(ideation, "", "  ")
	if err != nil {
		return models.Prompt{}, fmt.Errorf("序列化构思失败: %w", err)
	}

	example := filetree.NewFolder(pg.rootName,
		filetree.NewFolder("src",
			filetree.NewFile("App.jsx", "// Complete working React component code here"),
		),
	)
	exampleJSON, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return models.Prompt{}, fmt.Errorf("序列化示例文件树失败: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("Generate a complete React application file structure based on this ideation:\n\n")
	buf.Write(ideationJSON)
	fmt.Fprintf(&buf, "\n\nOriginal user request: %q\n\n", userPrompt)
	buf.WriteString("Requirements:\n")
	for i, req := range []string{
		"Return ONLY valid JSON",
		"Create a functional React app with working features",
		"Include complete, runnable code in each file",
		"Use modern React patterns (hooks, functional components)",
		"Style with Tailwind CSS inline classes",
		"Make it production-ready",
		fmt.Sprintf("The root folder must be named %q and every name must be a single path segment", pg.rootName),
	} {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, req)
	}
	buf.WriteString("\nReturn format:\n")
	buf.Write(exampleJSON)

	return models.Prompt{
		Text: buf.String(),
		Config: models.GenerationConfig{
			Temperature:     0.8,
			MaxOutputTokens: 8192,
		},
	}, nil
}

// RefinePrompt 基于现有文件树生成修改提示词，上下文只包含目录结构和入口文件
func (pg *PromptGenerator) RefinePrompt(root *filetree.Node, instruction string) models.Prompt {
	var buf bytes.Buffer
	buf.WriteString("You are editing an existing React project. Current structure:\n\n")
	buf.WriteString(filetree.Render(root))
	if path, content, err := filetree.ResolveEntryFile(filetree.FlatMap(root)); err == nil {
		fmt.Fprintf(&buf, "\nEntry file %s:\n%s\n", path, content)
	}
	fmt.Fprintf(&buf, "\nInstruction: %q\n\n", instruction)
	buf.WriteString("Return ONLY the complete updated project as JSON in the same {name, type, children, content} format.")

	return models.Prompt{
		Text: buf.String(),
		Config: models.GenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 8192,
		},
	}
}

func ideationExample() string {
	example := models.Ideation{
		ProjectName: "A catchy name for the project",
		Description: "2-3 sentence description of what the project does",
		Features: []string{
			"Feature 1 with brief description",
			"Feature 2 with brief description",
			"Feature 3 with brief description",
			"Feature 4 with brief description",
		},
		TechStack: models.TechStack{
			Frontend: []string{"React", "Tailwind CSS"},
			Backend:  []string{"Node.js", "Express"},
			Database: []string{"MongoDB"},
			Other:    []string{},
		},
		ColorScheme: models.ColorScheme{
			Primary:     "#6366f1",
			Secondary:   "#8b5cf6",
			Accent:      "#ec4899",
			Background:  "#ffffff",
			Text:        "#1f2937",
			Description: "Modern and professional",
		},
		StyleGuidelines: models.StyleGuidelines{
			Layout:      "Clean and minimal",
			Typography:  "Inter font family",
			Iconography: "Line icons",
			Animation:   "Subtle transitions",
		},
		UserFlow:           []string{"Step 1", "Step 2", "Step 3"},
		TargetAudience:     "Who is this app for",
		UniqueSellingPoint: "What makes this project special",
	}
	data, _ := json.MarshalIndent(example, "", "  ")
	return strings.TrimSpace(string(data))
}
