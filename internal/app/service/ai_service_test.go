package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/infrastructure/gemini"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
)

// fakeLLM answers prompts in order and records what it was asked.
type fakeLLM struct {
	replies []string
	errs    []error
	prompts []models.Prompt
}

func (f *fakeLLM) Generate(_ context.Context, p models.Prompt) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, p)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], err
	}
	return "", err
}

func (f *fakeLLM) GenerateStream(_ context.Context, p models.Prompt) (<-chan gemini.StreamChunk, error) {
	f.prompts = append(f.prompts, p)
	ch := make(chan gemini.StreamChunk, len(f.replies))
	for _, r := range f.replies {
		ch <- gemini.StreamChunk{Text: r}
	}
	close(ch)
	return ch, nil
}

const ideationReply = "```json\n" + `{
  "projectName": "Task Board",
  "description": "Track tasks",
  "features": ["Drag and drop"],
  "techStack": {"frontend": ["React"], "backend": [], "database": [], "other": []},
  "userFlow": ["Open board"],
}` + "\n```"

const codeReply = `Here you go: {"name":"project-root","type":"folder","children":[
  {"name":"src","type":"folder","children":[
    {"name":"App.jsx","type":"file","content":"function App() {\n  return <div/>;\n}\nexport default App;"}
  ]}
]}`

func newTestService(llm LLM) *AIService {
	cfg, err := config.Parse([]byte("limits:\n  max_prompt_length: 20\n"))
	if err != nil {
		panic(err)
	}
	return NewAIService(cfg, llm)
}

func TestValidatePrompt(t *testing.T) {
	s := newTestService(&fakeLLM{})
	tests := []struct {
		prompt string
		want   error
	}{
		{"", ErrPromptRequired},
		{"   \n", ErrPromptRequired},
		{"a todo app", nil},
		{strings.Repeat("x", 20), nil},
		{strings.Repeat("x", 21), ErrPromptTooLong},
		{strings.Repeat("界", 20), nil},
	}
	for _, tt := range tests {
		err := s.ValidatePrompt(tt.prompt)
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidatePrompt(%q) = %v, want %v", tt.prompt, err, tt.want)
		}
	}
}

func TestGenerateIdeation(t *testing.T) {
	llm := &fakeLLM{replies: []string{ideationReply}}
	s := newTestService(llm)

	ideation, err := s.GenerateIdeation(context.Background(), "a task board")
	if err != nil {
		t.Fatalf("GenerateIdeation: %v", err)
	}
	if ideation.ProjectName != "Task Board" || len(ideation.Features) != 1 {
		t.Errorf("ideation = %+v", ideation)
	}
	if got := llm.prompts[0].Config.Temperature; got != 0.7 {
		t.Errorf("temperature = %v", got)
	}
}

func TestGenerateIdeationErrors(t *testing.T) {
	upstream := errors.New("boom")
	tests := []struct {
		name  string
		llm   *fakeLLM
		match error
	}{
		{"llm error", &fakeLLM{errs: []error{upstream}}, upstream},
		{"unparseable", &fakeLLM{replies: []string{"no json here"}}, filetree.ErrMalformedInput},
		{"missing name", &fakeLLM{replies: []string{`{"description":"x"}`}}, models.ErrInvalidIdeation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.llm).GenerateIdeation(context.Background(), "app")
			var genErr *GenerationError
			if !errors.As(err, &genErr) || genErr.Stage != "ideation" {
				t.Fatalf("err = %v, want *GenerationError", err)
			}
			if !errors.Is(err, tt.match) {
				t.Errorf("err = %v, want wrapping %v", err, tt.match)
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{codeReply}})
	root, err := s.GenerateCode(context.Background(), &models.Ideation{ProjectName: "Task Board"}, "")
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if _, content, err := filetree.ResolveEntryFile(filetree.FlatMap(root)); err != nil || !strings.Contains(content, "function App") {
		t.Errorf("entry = %q, %v", content, err)
	}
}

func TestGenerateCodeFallback(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{`{"name":"x","type":"file"}`}})
	_, err := s.GenerateCode(context.Background(), &models.Ideation{ProjectName: "Task Board!"}, "")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v", err)
	}
	if genErr.Fallback == nil {
		t.Fatal("missing fallback tree")
	}
	pkg, err := filetree.FindByPath(genErr.Fallback, filetree.RootName+"/package.json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pkg.Content, `"task-board"`) {
		t.Errorf("package.json = %s", pkg.Content)
	}

	if _, err := s.GenerateCode(context.Background(), nil, ""); !errors.Is(err, models.ErrInvalidIdeation) {
		t.Errorf("nil ideation err = %v", err)
	}
}

func TestRunWorkflow(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{ideationReply, codeReply}})
	wf, err := s.RunWorkflow(context.Background(), "a task board", models.WorkflowOptions{IncludeTests: true})
	if err != nil {
		t.Fatalf("RunWorkflow: %v", err)
	}
	if wf.ID == "" || wf.Status != models.StepCompleted || wf.UsedFallback {
		t.Errorf("workflow = %+v", wf)
	}
	var agents []string
	for _, st := range wf.Steps {
		if st.Status != models.StepCompleted {
			t.Errorf("step %s status = %s", st.Agent, st.Status)
		}
		agents = append(agents, st.Agent)
	}
	if got := strings.Join(agents, ","); got != "ideation,coding,testing,documentation" {
		t.Errorf("steps = %s", got)
	}
	for _, p := range []string{"project-root/__tests__/App.test.js", "project-root/docs/README.md"} {
		if !filetree.Exists(wf.Tree, p) {
			t.Errorf("missing %s", p)
		}
	}
}

func TestRunWorkflowFallbackAndFailure(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{ideationReply, "garbage"}})
	wf, err := s.RunWorkflow(context.Background(), "a task board", models.WorkflowOptions{SkipDocs: true})
	if err != nil {
		t.Fatalf("RunWorkflow: %v", err)
	}
	if !wf.UsedFallback || len(wf.Steps) != 2 || wf.Steps[1].Error == "" {
		t.Errorf("workflow = %+v", wf)
	}

	s = newTestService(&fakeLLM{errs: []error{errors.New("quota")}})
	wf, err = s.RunWorkflow(context.Background(), "a task board", models.WorkflowOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if wf.Status != models.StepFailed || wf.Steps[0].Status != models.StepFailed {
		t.Errorf("workflow = %+v", wf)
	}
}

func TestRefineCode(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{codeReply}})
	before := filetree.DefaultSkeleton("demo")
	after, err := s.RefineCode(context.Background(), before, "make it blue")
	if err != nil {
		t.Fatal(err)
	}
	if filetree.Equal(before, after) {
		t.Error("tree unchanged")
	}
	if filetree.CountFiles(before) != 5 {
		t.Error("input tree was modified")
	}
}

func TestGenerateIdeationStream(t *testing.T) {
	s := newTestService(&fakeLLM{replies: []string{"{", "}"}})
	ch, err := s.GenerateIdeationStream(context.Background(), "app")
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for c := range ch {
		b.WriteString(c.Text)
	}
	if b.String() != "{}" {
		t.Errorf("stream = %q", b.String())
	}
}
