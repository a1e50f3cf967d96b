package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-scaffold-web/internal/app/service"
	"project-scaffold-web/internal/application"
	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/interfaces/http/middleware"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
	"project-scaffold-web/pkg/types"
)

// ProjectHandler 项目与文件树接口
type ProjectHandler struct {
	projects *application.ProjectService
	files    *application.FileService
	ai       *service.AIService
	config   *config.Config
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects *application.ProjectService, files *application.FileService, ai *service.AIService, cfg *config.Config) *ProjectHandler {
	return &ProjectHandler{projects: projects, files: files, ai: ai, config: cfg}
}

// load 读取路由中的项目，并确认属于当前用户
func (h *ProjectHandler) load(c *gin.Context) (*models.Project, bool) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err == nil {
		if owner := middleware.Owner(c); owner != "" && p.Owner != owner {
			err = models.ErrProjectNotFound
		}
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return p, true
}

// List GET /api/projects?status=&q=
func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), models.ProjectFilter{
		Owner:  middleware.Owner(c),
		Status: models.ProjectStatus(c.Query("status")),
		Query:  c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// Create POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var in application.CreateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, bindError(err))
		return
	}
	in.Owner = middleware.Owner(c)
	p, err := h.projects.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.Response{Success: true, Data: p})
}

// Get GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	ok(c, p)
}

// Update PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	var in application.UpdateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	p, err := h.projects.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p)
}

// Delete DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, nil)
}

// Tree GET /api/projects/:id/tree
func (h *ProjectHandler) Tree(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	ok(c, p.Tree)
}

// Files GET /api/projects/:id/files
func (h *ProjectHandler) Files(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	files, err := h.projects.Files(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, files)
}

// Node GET /api/projects/:id/node?path=，目录返回子节点列表
func (h *ProjectHandler) Node(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	path := c.Query("path")
	n, err := h.projects.Node(c.Request.Context(), p.ID, path)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"node": n}
	if n.IsFolder() {
		if path == "" {
			path = p.Tree.Name
		}
		resp["children"] = types.List(n, path)
	}
	ok(c, resp)
}

type insertRequest struct {
	ParentPath string         `json:"parentPath"`
	Node       *filetree.Node `json:"node" binding:"required"`
}

// InsertNode POST /api/projects/:id/nodes
func (h *ProjectHandler) InsertNode(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	p, err := h.projects.InsertNode(c.Request.Context(), c.Param("id"), req.ParentPath, req.Node)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p.Tree)
}

type updateNodeRequest struct {
	Path    string         `json:"path" binding:"required"`
	Node    *filetree.Node `json:"node"`
	Content *string        `json:"content"`
}

// UpdateNode PUT /api/projects/:id/nodes：带 node 时替换子树，否则修改文件内容
func (h *ProjectHandler) UpdateNode(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	var req updateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	var (
		p   *models.Project
		err error
	)
	switch {
	case req.Node != nil:
		p, err = h.projects.ReplaceNode(ctx, c.Param("id"), req.Path, req.Node)
	case req.Content != nil:
		p, err = h.projects.UpdateContent(ctx, c.Param("id"), req.Path, *req.Content)
	default:
		badRequest(c, "需要提供 node 或 content")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p.Tree)
}

// DeleteNode DELETE /api/projects/:id/nodes?path=
func (h *ProjectHandler) DeleteNode(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	path := c.Query("path")
	if path == "" {
		badRequest(c, "path 不能为空")
		return
	}
	p, err := h.projects.RemoveNode(c.Request.Context(), c.Param("id"), path)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p.Tree)
}

type renameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

// RenameNode POST /api/projects/:id/nodes/rename
func (h *ProjectHandler) RenameNode(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	p, err := h.projects.RenameNode(c.Request.Context(), c.Param("id"), req.Path, req.NewName)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p.Tree)
}

// Stats GET /api/projects/:id/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	stats, err := h.projects.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, stats)
}

// Analysis GET /api/projects/:id/analysis
func (h *ProjectHandler) Analysis(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	analysis, err := h.projects.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, analysis)
}

// Preview GET /api/projects/:id/preview，format=json 时返回 JSON
func (h *ProjectHandler) Preview(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	preview, err := h.projects.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") == "json" {
		ok(c, preview)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(preview.HTML))
}

// Docs POST /api/projects/:id/docs
func (h *ProjectHandler) Docs(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	docs, p, err := h.projects.GenerateDocs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"documentation": docs, "tree": p.Tree})
}

// Tests POST /api/projects/:id/tests
func (h *ProjectHandler) Tests(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	suite, p, err := h.projects.GenerateTests(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"tests": suite, "tree": p.Tree})
}

type terminalRequest struct {
	Command string `json:"command"`
}

// Terminal POST /api/projects/:id/terminal
func (h *ProjectHandler) Terminal(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	var req terminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	user := middleware.Owner(c)
	res, err := h.projects.Exec(c.Request.Context(), c.Param("id"), user, req.Command)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

type refineRequest struct {
	Instruction string `json:"instruction"`
}

// Refine POST /api/projects/:id/refine，让模型按指令修改整个项目
func (h *ProjectHandler) Refine(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	refined, err := h.ai.RefineCode(c.Request.Context(), p.Tree, req.Instruction)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err = h.projects.SetTree(c.Request.Context(), p.ID, refined)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p.Tree)
}

// Blueprint GET /api/projects/:id/blueprint.md
func (h *ProjectHandler) Blueprint(c *gin.Context) {
	if _, found := h.load(c); !found {
		return
	}
	md, p, err := h.projects.Blueprint(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileSafe(p.Name)+`-blueprint.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// ExportZip GET /api/projects/:id/export.zip
func (h *ProjectHandler) ExportZip(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	var buf bytes.Buffer
	if err := h.files.ExportZip(p.Tree, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileSafe(p.Name)+`.zip"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// Combined GET /api/projects/:id/combined，返回目录结构加全部文件内容
func (h *ProjectHandler) Combined(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	c.String(http.StatusOK, h.files.FormatOutput(p.Tree))
}

// ImportZip POST /api/projects/:id/import/zip，用上传的 ZIP 替换文件树
func (h *ProjectHandler) ImportZip(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	result, done := uploadedZip(c, h.files, h.config, p.Tree.Name)
	if !done {
		return
	}
	h.replaceTree(c, p, result)
}

type githubImportRequest struct {
	URL   string `json:"url" binding:"required"`
	Token string `json:"token"`
}

// ImportGithub POST /api/projects/:id/import/github
func (h *ProjectHandler) ImportGithub(c *gin.Context) {
	p, found := h.load(c)
	if !found {
		return
	}
	var req githubImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请提供 GitHub 仓库 URL")
		return
	}
	result, err := h.files.ImportGithub(c.Request.Context(), req.URL, req.Token, p.Tree.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.replaceTree(c, p, result)
}

func (h *ProjectHandler) replaceTree(c *gin.Context, p *models.Project, result *models.ProcessResult) {
	updated, err := h.projects.SetTree(c.Request.Context(), p.ID, result.Tree)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).Info("项目文件树已导入",
		zap.String("project_id", p.ID),
		zap.Int("files", len(result.FileContents)),
		zap.Int("skipped", len(result.Skipped)))
	ok(c, gin.H{"tree": updated.Tree, "skipped": result.Skipped})
}

// bindError 把 JSON 绑定错误中的文件树格式错误原样保留，其余视为参数错误
func bindError(err error) error {
	if errors.Is(err, filetree.ErrMalformedInput) {
		return err
	}
	return &paramError{err}
}

type paramError struct{ err error }

func (e *paramError) Error() string { return "无效的请求参数: " + e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func fileSafe(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '"' || r < ' ' {
			return '-'
		}
		return r
	}, name)
	if name == "" {
		return "project"
	}
	return name
}
