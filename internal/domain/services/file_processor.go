package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
)

// FileProcessor 文件处理服务：ZIP 与文件树之间的互相转换
type FileProcessor struct {
	config *config.Config
}

// NewFileProcessor 创建文件处理服务实例
func NewFileProcessor(cfg *config.Config) *FileProcessor {
	return &FileProcessor{
		config: cfg,
	}
}

// ProcessZipFile 处理ZIP文件，把其中的文本文件放进以 rootName 命名的文件树
func (fp *FileProcessor) ProcessZipFile(file io.ReaderAt, size int64, rootName string) (*models.ProcessResult, error) {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("无法读取ZIP文件: %w", err)
	}

	builder := filetree.NewBuilder(rootName)
	fileContents := make(map[string]models.FileContent)
	var skipped []string

	for _, zipEntry := range reader.File {
		filePath := filepath.ToSlash(zipEntry.Name)
		if zipEntry.FileInfo().IsDir() {
			continue
		}

		if fp.config.IsExcluded(filePath, zipEntry.UncompressedSize64) {
			logger.Debug("排除 (规则)", zap.String("path", filePath))
			skipped = append(skipped, filePath)
			continue
		}

		if !fp.config.IsLikelyTextFile(filePath) {
			logger.Debug("排除 (非文本扩展名)", zap.String("path", filePath))
			skipped = append(skipped, filePath)
			continue
		}

		contentBytes, err := fp.readEntry(zipEntry)
		if err != nil {
			logger.Warn("读取文件失败", zap.String("path", filePath), zap.Error(err))
			skipped = append(skipped, filePath)
			continue
		}

		contentType := http.DetectContentType(contentBytes)
		if !strings.HasPrefix(contentType, "text/") && !fp.config.IsTextContentTypeException(contentType) {
			logger.Debug("排除 (检测到二进制内容)", zap.String("path", filePath), zap.String("content_type", contentType))
			skipped = append(skipped, filePath)
			continue
		}

		if err := builder.Add(filePath, string(contentBytes)); err != nil {
			logger.Warn("无法加入文件树", zap.String("path", filePath), zap.Error(err))
			skipped = append(skipped, filePath)
			continue
		}
		fileContents[filePath] = models.FileContent{Path: filePath, Content: string(contentBytes)}
		logger.Debug("已处理", zap.String("path", filePath))
	}

	logger.Info("ZIP 导入完成",
		zap.Int("files", len(fileContents)),
		zap.Int("skipped", len(skipped)))

	return &models.ProcessResult{
		Tree:         builder.Tree(),
		FileContents: fileContents,
		Skipped:      skipped,
	}, nil
}

// readEntry 读取单个条目，超过大小限制时返回错误
func (fp *FileProcessor) readEntry(zipEntry *zip.File) ([]byte, error) {
	rc, err := zipEntry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := fp.config.GetMaxFileSize()
	contentBytes, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(contentBytes)) > limit {
		return nil, fmt.Errorf("文件内容超限")
	}
	return contentBytes, nil
}

// ExportZip 把文件树按展开路径写成 ZIP，空目录也会保留
func (fp *FileProcessor) ExportZip(root *filetree.Node, w io.Writer) error {
	zw := zip.NewWriter(w)
	err := filetree.Walk(root, func(p string, n *filetree.Node) error {
		if n.IsFolder() {
			if len(n.Children) > 0 {
				return nil
			}
			_, err := zw.Create(p + "/")
			return err
		}
		f, err := zw.Create(p)
		if err != nil {
			return err
		}
		_, err = io.WriteString(f, n.Content)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("写入ZIP失败: %w", err)
	}
	return zw.Close()
}

// FormatOutput 格式化输出：目录结构加上每个文件的内容
func (fp *FileProcessor) FormatOutput(root *filetree.Node) string {
	var buf bytes.Buffer

	buf.WriteString("文件结构:\n")
	root.Print(&buf, "", true)
	buf.WriteString("\n文件内容:\n")

	for path, content := range filetree.Flatten(root) {
		buf.WriteString(fmt.Sprintf("\n=== %s ===\n", path))
		buf.WriteString(content)
		buf.WriteString("\n")
	}

	return buf.String()
}
