package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/infrastructure/gemini"
	"project-scaffold-web/internal/metrics"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
)

var (
	// ErrPromptRequired 提示词为空
	ErrPromptRequired = errors.New("prompt is required")
	// ErrPromptTooLong 提示词超过长度限制
	ErrPromptTooLong = errors.New("prompt is too long")
)

// LLM 文本生成后端，由 gemini.Client 实现
type LLM interface {
	Generate(ctx context.Context, prompt models.Prompt) (string, error)
	GenerateStream(ctx context.Context, prompt models.Prompt) (<-chan gemini.StreamChunk, error)
}

// GenerationError 某个生成阶段失败。代码阶段失败时 Fallback 携带默认骨架
type GenerationError struct {
	Stage    string
	Err      error
	Fallback *filetree.Node
}

func (e *GenerationError) Error() string {
	return e.Stage + " generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AIService 负责 构思 -> 代码树 -> 测试 -> 文档 的编排
type AIService struct {
	llm       LLM
	cfg       *config.Config
	prompts   *services.PromptGenerator
	docs      *services.DocGenerator
	tests     *services.TestGenerator
	ingestOpt filetree.IngestOptions
	now       func() time.Time
}

// NewAIService 创建新的AI服务实例
func NewAIService(cfg *config.Config, llm LLM) *AIService {
	if cfg == nil {
		cfg = config.Default()
	}
	return &AIService{
		llm:       llm,
		cfg:       cfg,
		prompts:   services.NewPromptGenerator(cfg.GetRootName()),
		docs:      services.NewDocGenerator(),
		tests:     services.NewTestGenerator(),
		ingestOpt: filetree.IngestOptions{RejectDuplicates: cfg.RejectDuplicateNames()},
		now:       time.Now,
	}
}

// ValidatePrompt 检查提示词非空且不超过最大长度
func (s *AIService) ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrPromptRequired
	}
	if max := s.cfg.GetMaxPromptLength(); utf8.RuneCountInString(prompt) > max {
		return fmt.Errorf("%w (max %d characters)", ErrPromptTooLong, max)
	}
	return nil
}

// generate 调用模型并记录耗时
func (s *AIService) generate(ctx context.Context, stage string, prompt models.Prompt) (string, error) {
	start := s.now()
	text, err := s.llm.Generate(ctx, prompt)
	metrics.RecordLLMRequest(stage, time.Since(start), err == nil)
	return text, err
}

// GenerateIdeation 根据用户提示词生成项目构思
func (s *AIService) GenerateIdeation(ctx context.Context, prompt string) (*models.Ideation, error) {
	if err := s.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info("生成项目构思", zap.Int("prompt_length", len(prompt)))

	text, err := s.generate(ctx, "ideation", s.prompts.IdeationPrompt(prompt))
	if err != nil {
		log.Error("调用模型生成构思失败", zap.Error(err))
		return nil, &GenerationError{Stage: "ideation", Err: err}
	}

	var ideation models.Ideation
	if err := services.ParseLLMJSON(text, &ideation); err != nil {
		log.Warn("构思 JSON 解析失败", zap.Error(err), zap.Int("response_length", len(text)))
		return nil, &GenerationError{Stage: "ideation", Err: err}
	}
	if err := ideation.Validate(); err != nil {
		return nil, &GenerationError{Stage: "ideation", Err: err}
	}
	return &ideation, nil
}

// GenerateIdeationStream 流式生成构思，原样转发模型输出片段
func (s *AIService) GenerateIdeationStream(ctx context.Context, prompt string) (<-chan gemini.StreamChunk, error) {
	if err := s.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	ch, err := s.llm.GenerateStream(ctx, s.prompts.IdeationPrompt(prompt))
	if err != nil {
		logger.FromContext(ctx).Error("流式生成构思失败", zap.Error(err))
		return nil, &GenerationError{Stage: "ideation", Err: err}
	}
	return ch, nil
}

// GenerateCode 根据构思生成完整的项目文件树。
// 失败时返回 *GenerationError，其中 Fallback 为默认骨架
func (s *AIService) GenerateCode(ctx context.Context, ideation *models.Ideation, prompt string) (*filetree.Node, error) {
	if err := ideation.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With(zap.String("project", ideation.ProjectName))
	log.Info("生成项目代码")

	fail := func(err error) (*filetree.Node, error) {
		metrics.RecordFallback()
		log.Warn("代码生成失败，使用默认骨架", zap.Error(err))
		return nil, &GenerationError{
			Stage:    "code",
			Err:      err,
			Fallback: filetree.DefaultSkeleton(slug(ideation.ProjectName)),
		}
	}

	codePrompt, err := s.prompts.CodePrompt(ideation, prompt)
	if err != nil {
		return fail(err)
	}
	text, err := s.generate(ctx, "code", codePrompt)
	if err != nil {
		return fail(err)
	}
	root, err := services.ParseLLMTree(text, s.ingestOpt)
	if err != nil {
		return fail(err)
	}
	if !root.IsFolder() {
		return fail(&filetree.PathError{Op: "generate", Path: root.Name, Err: filetree.ErrNotAFolder})
	}

	files := filetree.CountFiles(root)
	metrics.ObserveTreeFiles(files)
	log.Info("项目代码生成完成", zap.Int("files", files))
	return root, nil
}

// RefineCode 按指令修改已有文件树，返回新的树，原树不变
func (s *AIService) RefineCode(ctx context.Context, root *filetree.Node, instruction string) (*filetree.Node, error) {
	if err := s.ValidatePrompt(instruction); err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, "refine", s.prompts.RefinePrompt(root, instruction))
	if err != nil {
		return nil, &GenerationError{Stage: "refine", Err: err}
	}
	refined, err := services.ParseLLMTree(text, s.ingestOpt)
	if err != nil {
		logger.FromContext(ctx).Warn("修改结果解析失败", zap.Error(err))
		return nil, &GenerationError{Stage: "refine", Err: err}
	}
	if !refined.IsFolder() {
		return nil, &GenerationError{Stage: "refine", Err: &filetree.PathError{Op: "refine", Path: refined.Name, Err: filetree.ErrNotAFolder}}
	}
	return refined, nil
}

// RunWorkflow 依次执行构思、代码、测试（可选）和文档步骤。
// 代码步骤失败时使用默认骨架继续
func (s *AIService) RunWorkflow(ctx context.Context, prompt string, opts models.WorkflowOptions) (*models.Workflow, error) {
	if err := s.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	wf := &models.Workflow{
		ID:        uuid.NewString(),
		Status:    models.StepRunning,
		StartTime: s.now(),
	}
	log := logger.FromContext(ctx).With(zap.String("workflow_id", wf.ID))
	log.Info("开始执行工作流", zap.Bool("include_tests", opts.IncludeTests), zap.Bool("skip_docs", opts.SkipDocs))

	finish := func(err error) (*models.Workflow, error) {
		wf.EndTime = s.now()
		wf.Duration = wf.EndTime.Sub(wf.StartTime)
		if err != nil {
			wf.Status = models.StepFailed
			wf.Error = err.Error()
			log.Error("工作流失败", zap.Error(err), zap.Duration("duration", wf.Duration))
			return wf, err
		}
		wf.Status = models.StepCompleted
		log.Info("工作流完成", zap.Duration("duration", wf.Duration), zap.Int("files", filetree.CountFiles(wf.Tree)))
		return wf, nil
	}

	// 构思
	step := s.startStep(wf, "ideation")
	ideation, err := s.GenerateIdeation(ctx, prompt)
	s.endStep(wf, step, err)
	if err != nil {
		return finish(err)
	}
	wf.Ideation = ideation

	// 代码
	step = s.startStep(wf, "coding")
	tree, err := s.GenerateCode(ctx, ideation, prompt)
	if err != nil {
		var genErr *GenerationError
		if !errors.As(err, &genErr) || genErr.Fallback == nil {
			s.endStep(wf, step, err)
			return finish(err)
		}
		tree = genErr.Fallback
		wf.UsedFallback = true
		s.endStep(wf, step, nil)
		wf.Steps[step].Error = err.Error()
	} else {
		s.endStep(wf, step, nil)
	}

	// 测试
	if opts.IncludeTests {
		step = s.startStep(wf, "testing")
		suite := s.tests.Generate(tree)
		withTests, err := s.tests.AttachTests(tree, suite)
		s.endStep(wf, step, err)
		if err != nil {
			return finish(err)
		}
		wf.Tests = suite
		tree = withTests
	}

	// 文档
	if !opts.SkipDocs {
		step = s.startStep(wf, "documentation")
		docs := s.docs.Generate(ideation, tree)
		withDocs, err := s.docs.AttachDocs(tree, docs)
		s.endStep(wf, step, err)
		if err != nil {
			return finish(err)
		}
		wf.Documentation = docs
		tree = withDocs
	}

	wf.Tree = tree
	return finish(nil)
}

func (s *AIService) startStep(wf *models.Workflow, agent string) int {
	wf.Steps = append(wf.Steps, models.WorkflowStep{
		Agent:     agent,
		Status:    models.StepRunning,
		StartTime: s.now(),
	})
	return len(wf.Steps) - 1
}

func (s *AIService) endStep(wf *models.Workflow, i int, err error) {
	st := &wf.Steps[i]
	st.EndTime = s.now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	if err != nil {
		st.Status = models.StepFailed
		st.Error = err.Error()
		return
	}
	st.Status = models.StepCompleted
}

// slug 把项目名转换为 package.json 可用的名称
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
