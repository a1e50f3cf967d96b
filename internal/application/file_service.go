package application

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/infrastructure/github"
	"project-scaffold-web/internal/metrics"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
)

// RepoImporter 把远程仓库导入为文件树，由 github.Client 实现
type RepoImporter interface {
	ImportRepo(ctx context.Context, owner, repo, token, rootName string) (*models.ProcessResult, error)
}

// FileService 文件应用服务：ZIP 与 GitHub 导入、ZIP 导出、文本汇总
type FileService struct {
	fileProcessor *services.FileProcessor
	repos         RepoImporter
}

// NewFileService 创建文件应用服务实例
func NewFileService(fileProcessor *services.FileProcessor, repos RepoImporter) *FileService {
	return &FileService{
		fileProcessor: fileProcessor,
		repos:         repos,
	}
}

// ProcessZipFile 处理上传的 ZIP 文件
func (s *FileService) ProcessZipFile(file *multipart.FileHeader, rootName string) (*models.ProcessResult, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ra, ok := src.(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("上传文件不支持随机读取")
	}
	result, err := s.fileProcessor.ProcessZipFile(ra, file.Size, rootName)
	metrics.RecordImport("zip", err == nil)
	if err == nil {
		metrics.ObserveTreeFiles(len(result.FileContents))
	}
	return result, err
}

// ImportGithub 解析仓库地址并导入
func (s *FileService) ImportGithub(ctx context.Context, repoURL, token, rootName string) (*models.ProcessResult, error) {
	owner, repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	result, err := s.repos.ImportRepo(ctx, owner, repo, token, rootName)
	metrics.RecordImport("github", err == nil)
	if err != nil {
		logger.FromContext(ctx).Error("GitHub 导入失败", zap.String("repo_url", repoURL), zap.Error(err))
		return nil, err
	}
	metrics.ObserveTreeFiles(len(result.FileContents))
	return result, nil
}

// ExportZip 把文件树写成 ZIP
func (s *FileService) ExportZip(root *filetree.Node, w io.Writer) error {
	return s.fileProcessor.ExportZip(root, w)
}

// FormatOutput 格式化输出
func (s *FileService) FormatOutput(root *filetree.Node) string {
	return s.fileProcessor.FormatOutput(root)
}
