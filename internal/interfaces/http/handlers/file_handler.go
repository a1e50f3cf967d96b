package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-scaffold-web/internal/application"
	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/logger"
)

// FileHandler 无状态的文件处理接口：上传 ZIP 或 GitHub 仓库，直接返回合并结果
type FileHandler struct {
	fileService *application.FileService
	config      *config.Config
}

// NewFileHandler 创建 HTTP 处理器实例
func NewFileHandler(fileService *application.FileService, cfg *config.Config) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		config:      cfg,
	}
}

// format 从查询参数或表单读取输出格式，默认 text
func format(c *gin.Context) string {
	if f := c.PostForm("format"); f != "" {
		return f
	}
	return c.DefaultQuery("format", "text")
}

// rootName 从查询参数或表单读取根目录名
func (h *FileHandler) rootName(c *gin.Context) string {
	if r := c.PostForm("root"); r != "" {
		return r
	}
	return c.DefaultQuery("root", h.config.GetRootName())
}

// uploadedZip 读取并检查上传的 codeZip 文件
func uploadedZip(c *gin.Context, fs *application.FileService, cfg *config.Config, rootName string) (*models.ProcessResult, bool) {
	log := logger.FromContext(c.Request.Context())

	file, err := c.FormFile("codeZip")
	if err != nil {
		log.Warn("未上传ZIP文件", zap.Error(err))
		badRequest(c, "请上传 ZIP 文件")
		return nil, false
	}
	if file.Size > cfg.GetMaxUploadSize() {
		log.Warn("文件大小超过限制",
			zap.String("file_name", file.Filename),
			zap.Int64("file_size", file.Size),
			zap.Int64("max_size", cfg.GetMaxUploadSize()))
		badRequest(c, "文件大小超过限制")
		return nil, false
	}

	result, err := fs.ProcessZipFile(file, rootName)
	if err != nil {
		log.Error("处理ZIP文件失败", zap.String("file_name", file.Filename), zap.Error(err))
		respondError(c, err)
		return nil, false
	}
	log.Info("ZIP文件处理成功",
		zap.String("file_name", file.Filename),
		zap.Int("files_count", len(result.FileContents)),
		zap.Int("skipped", len(result.Skipped)))
	return result, true
}

func (h *FileHandler) respond(c *gin.Context, result *models.ProcessResult) {
	if format(c) == "json" {
		ok(c, result)
		return
	}
	c.String(http.StatusOK, h.fileService.FormatOutput(result.Tree))
}

// HandleCombineCode POST /api/combine-code
func (h *FileHandler) HandleCombineCode(c *gin.Context) {
	result, done := uploadedZip(c, h.fileService, h.config, h.rootName(c))
	if !done {
		return
	}
	h.respond(c, result)
}

// HandleGitHubRepo GET|POST /api/github-code
func (h *FileHandler) HandleGitHubRepo(c *gin.Context) {
	repoURL := c.Query("url")
	if repoURL == "" {
		repoURL = c.PostForm("url")
	}
	if repoURL == "" {
		badRequest(c, "请提供 GitHub 仓库 URL")
		return
	}
	token := c.Query("token")
	if token == "" {
		token = c.PostForm("token")
	}

	result, err := h.fileService.ImportGithub(c.Request.Context(), repoURL, token, h.rootName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, result)
}
