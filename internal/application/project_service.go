package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/metrics"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
	"project-scaffold-web/pkg/types"
)

// ErrInvalidProject 创建或更新项目时参数不合法
var ErrInvalidProject = errors.New("invalid project")

// ProjectStore 项目持久化，memory 与 postgres 两种实现
type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id string) error
}

// CreateProjectInput 新建项目参数，Tree 为空时使用默认骨架
type CreateProjectInput struct {
	Owner    string               `json:"-"`
	Name     string               `json:"name"`
	Prompt   string               `json:"prompt"`
	Status   models.ProjectStatus `json:"status"`
	Ideation *models.Ideation     `json:"ideation"`
	Tree     *filetree.Node       `json:"tree"`
}

// UpdateProjectInput 部分更新，nil 字段保持不变
type UpdateProjectInput struct {
	Name     *string               `json:"name"`
	Status   *models.ProjectStatus `json:"status"`
	Ideation *models.Ideation      `json:"ideation"`
}

// ProjectService 项目应用服务。每个项目持有一棵文件树，
// 所有修改都在 mu 下读取、生成新树并整体写回
type ProjectService struct {
	store   ProjectStore
	cfg     *config.Config
	docs    *services.DocGenerator
	tests   *services.TestGenerator
	preview *services.PreviewRenderer
	now     func() time.Time

	mu sync.Mutex

	termMu    sync.Mutex
	terminals map[string]*terminalSession
}

type terminalSession struct {
	root string
	term *services.Terminal
}

// NewProjectService 创建项目服务
func NewProjectService(cfg *config.Config, store ProjectStore) *ProjectService {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ProjectService{
		store:     store,
		cfg:       cfg,
		docs:      services.NewDocGenerator(),
		tests:     services.NewTestGenerator(),
		preview:   services.NewPreviewRenderer(cfg),
		now:       time.Now,
		terminals: make(map[string]*terminalSession),
	}
}

// checkTree 校验根节点为目录，开启重名检查时校验整棵树
func (s *ProjectService) checkTree(root *filetree.Node) error {
	if root == nil || !root.IsFolder() {
		return &filetree.PathError{Op: "check", Path: "", Err: filetree.ErrNotAFolder}
	}
	if s.cfg.RejectDuplicateNames() {
		return filetree.Validate(root)
	}
	if !filetree.ValidName(root.Name) {
		return &filetree.PathError{Op: "check", Path: root.Name, Err: filetree.ErrInvalidName}
	}
	return nil
}

// Create 新建项目
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" && in.Ideation != nil {
		name = in.Ideation.ProjectName
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProject)
	}
	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProject, status)
	}

	tree := in.Tree
	if tree == nil {
		tree = filetree.DefaultSkeleton(name)
	}
	if err := s.checkTree(tree); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Project{
		ID:        uuid.NewString(),
		Owner:     in.Owner,
		Name:      name,
		Prompt:    in.Prompt,
		Status:    status,
		Ideation:  in.Ideation,
		Tree:      filetree.Clone(tree),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("创建项目",
		zap.String("project_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("files", filetree.CountFiles(p.Tree)))
	return p, nil
}

// Get 获取项目
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.store.Get(ctx, id)
}

// List 按条件列出项目摘要
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectSummary, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProject, filter.Status)
	}
	projects, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Summary())
	}
	return out, nil
}

// Update 修改项目元数据
func (s *ProjectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidProject)
		}
		p.Name = name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProject, *in.Status)
		}
		p.Status = *in.Status
	}
	if in.Ideation != nil {
		p.Ideation = in.Ideation
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete 删除项目及其终端会话
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.termMu.Lock()
	delete(s.terminals, id)
	s.termMu.Unlock()
	logger.FromContext(ctx).Info("删除项目", zap.String("project_id", id))
	return nil
}

// mutate 读取项目，交给 fn 生成新树后整体写回。fn 不能修改 p.Tree
func (s *ProjectService) mutate(ctx context.Context, id, op string, fn func(p *models.Project) (*filetree.Node, error)) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := fn(p)
	metrics.RecordTreeOperation(op, err == nil)
	if err != nil {
		logger.FromContext(ctx).Debug("文件树操作失败",
			zap.String("project_id", id),
			zap.String("op", op),
			zap.Error(err))
		return nil, err
	}
	p.Tree = tree
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// InsertNode 在 parentPath 目录下追加节点
func (s *ProjectService) InsertNode(ctx context.Context, id, parentPath string, node *filetree.Node) (*models.Project, error) {
	return s.mutate(ctx, id, "insert", func(p *models.Project) (*filetree.Node, error) {
		root := p.Tree
		if node == nil {
			return nil, &filetree.PathError{Op: "insert", Path: parentPath, Err: filetree.ErrMalformedInput}
		}
		if s.cfg.RejectDuplicateNames() {
			if parent, err := filetree.FindByPath(root, parentPath); err == nil && parent.Child(node.Name) != nil {
				return nil, &filetree.PathError{Op: "insert", Path: filetree.JoinPath(parentPath, node.Name), Err: filetree.ErrDuplicateName}
			}
		}
		return filetree.InsertChild(root, parentPath, node)
	})
}

// ReplaceNode 用 node 替换 path 处的子树
func (s *ProjectService) ReplaceNode(ctx context.Context, id, path string, node *filetree.Node) (*models.Project, error) {
	return s.mutate(ctx, id, "replace", func(p *models.Project) (*filetree.Node, error) {
		root := p.Tree
		if node == nil {
			return nil, &filetree.PathError{Op: "replace", Path: path, Err: filetree.ErrMalformedInput}
		}
		updated, err := filetree.ReplaceSubtree(root, path, node)
		if err != nil {
			return nil, err
		}
		if s.cfg.RejectDuplicateNames() {
			if err := checkSiblings(updated, path, node.Name); err != nil {
				return nil, err
			}
		}
		return updated, nil
	})
}

// checkSiblings 确认 path 所在目录中名为 name 的节点只有一个，替换根节点时不检查
func checkSiblings(root *filetree.Node, path, name string) error {
	segs := filetree.SplitPath(path)
	if len(segs) > 0 && segs[0] == root.Name {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return nil
	}
	parentPath := strings.Join(segs[:len(segs)-1], "/")
	parent, err := filetree.FindByPath(root, parentPath)
	if err != nil {
		return err
	}
	count := 0
	for _, c := range parent.Children {
		if c != nil && c.Name == name {
			count++
		}
	}
	if count > 1 {
		return &filetree.PathError{Op: "replace", Path: filetree.JoinPath(parentPath, name), Err: filetree.ErrDuplicateName}
	}
	return nil
}

// UpdateContent 修改文件内容
func (s *ProjectService) UpdateContent(ctx context.Context, id, path, content string) (*models.Project, error) {
	return s.mutate(ctx, id, "update_content", func(p *models.Project) (*filetree.Node, error) {
		return filetree.UpdateContent(p.Tree, path, content)
	})
}

// RemoveNode 删除 path 处的节点
func (s *ProjectService) RemoveNode(ctx context.Context, id, path string) (*models.Project, error) {
	return s.mutate(ctx, id, "remove", func(p *models.Project) (*filetree.Node, error) {
		return filetree.RemoveAt(p.Tree, path)
	})
}

// RenameNode 重命名 path 处的节点
func (s *ProjectService) RenameNode(ctx context.Context, id, path, newName string) (*models.Project, error) {
	return s.mutate(ctx, id, "rename", func(p *models.Project) (*filetree.Node, error) {
		return filetree.Rename(p.Tree, path, newName)
	})
}

// SetTree 整体替换项目的文件树，用于导入和模型修改
func (s *ProjectService) SetTree(ctx context.Context, id string, tree *filetree.Node) (*models.Project, error) {
	return s.mutate(ctx, id, "set_tree", func(*models.Project) (*filetree.Node, error) {
		if err := s.checkTree(tree); err != nil {
			return nil, err
		}
		return filetree.Clone(tree), nil
	})
}

// Node 返回 path 处的节点
func (s *ProjectService) Node(ctx context.Context, id, path string) (*filetree.Node, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return filetree.FindByPath(p.Tree, path)
}

// Files 返回扁平文件表
func (s *ProjectService) Files(ctx context.Context, id string) (map[string]string, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return filetree.FlatMap(p.Tree), nil
}

// Stats 返回文件数、目录数与行数
func (s *ProjectService) Stats(ctx context.Context, id string) (filetree.Stats, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return filetree.Stats{}, err
	}
	return filetree.Summarize(p.Tree), nil
}

// Analyze 返回组件、后端文件与依赖分析
func (s *ProjectService) Analyze(ctx context.Context, id string) (*types.ProjectAnalysis, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.docs.Analyze(p.Tree), nil
}

// GenerateDocs 生成文档并写入 docs/ 目录
func (s *ProjectService) GenerateDocs(ctx context.Context, id string) (*models.DocumentationSet, *models.Project, error) {
	var docs *models.DocumentationSet
	p, err := s.mutate(ctx, id, "docs", func(p *models.Project) (*filetree.Node, error) {
		docs = s.docs.Generate(p.Ideation, p.Tree)
		return s.docs.AttachDocs(p.Tree, docs)
	})
	if err != nil {
		return nil, nil, err
	}
	return docs, p, nil
}

// GenerateTests 生成测试并写入 __tests__/ 目录
func (s *ProjectService) GenerateTests(ctx context.Context, id string) (*models.TestSuite, *models.Project, error) {
	var suite *models.TestSuite
	p, err := s.mutate(ctx, id, "tests", func(p *models.Project) (*filetree.Node, error) {
		suite = s.tests.Generate(p.Tree)
		return s.tests.AttachTests(p.Tree, suite)
	})
	if err != nil {
		return nil, nil, err
	}
	return suite, p, nil
}

// Preview 渲染预览页面
func (s *ProjectService) Preview(ctx context.Context, id string) (*services.Preview, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.preview.Render(p.Tree)
}

// Blueprint 生成项目蓝图 markdown
func (s *ProjectService) Blueprint(ctx context.Context, id string) (string, *models.Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return s.docs.Blueprint(p.Ideation, p.Tree), p, nil
}

// Exec 在项目的终端会话中执行一条命令，会话按项目保存
func (s *ProjectService) Exec(ctx context.Context, id, user, input string) (services.TerminalResult, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return services.TerminalResult{}, err
	}

	s.termMu.Lock()
	defer s.termMu.Unlock()
	sess, ok := s.terminals[id]
	if !ok || sess.root != p.Tree.Name {
		// 根目录改名后重新开始会话
		sess = &terminalSession{root: p.Tree.Name, term: services.NewTerminal(p.Tree.Name, user)}
		s.terminals[id] = sess
	}
	return sess.term.Exec(p.Tree, input), nil
}
