package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
)

// ErrInvalidRepoURL 不是合法的 GitHub 仓库地址
var ErrInvalidRepoURL = errors.New("无效的 GitHub 仓库 URL")

// maxRegularFiles 限制常规文件数量以防止请求过多
const maxRegularFiles = 50

// 优先获取内容的文件
var importantFiles = map[string]bool{
	"README.md":       true,
	"README":          true,
	"LICENSE":         true,
	"CONTRIBUTING.md": true,
	"package.json":    true,
	"Dockerfile":      true,
}

// 优先处理的文件类型
var priorityExtensions = map[string]bool{
	".md":   true,
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".css":  true,
	".html": true,
	".json": true,
}

// treeEntry git trees 接口返回的一项
type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Client GitHub 客户端
type Client struct {
	config     *config.Config
	apiBase    string
	rawBase    string
	httpClient *http.Client
}

// NewClient 创建 GitHub 客户端实例
func NewClient(cfg *config.Config) *Client {
	return &Client{
		config:     cfg,
		apiBase:    cfg.GetGithubAPIBase(),
		rawBase:    cfg.GetGithubRawBase(),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// ImportRepo 把仓库导入成以 rootName 为根的文件树，依次尝试 main 和 master 分支
func (c *Client) ImportRepo(ctx context.Context, owner, repo, token, rootName string) (*models.ProcessResult, error) {
	log := logger.FromContext(ctx).With(zap.String("repo", owner+"/"+repo))
	log.Info("开始获取 GitHub 仓库内容")

	if token == "" {
		token = c.config.GetGithubAPIKey()
	}

	var lastError error
	for _, branch := range []string{"main", "master"} {
		result, err := c.importBranch(ctx, owner, repo, branch, token, rootName)
		if err != nil {
			log.Warn("分支获取失败", zap.String("branch", branch), zap.Error(err))
			lastError = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		log.Info("成功获取仓库内容",
			zap.String("branch", branch),
			zap.Int("files", len(result.FileContents)),
			zap.Int("skipped", len(result.Skipped)))
		return result, nil
	}

	return nil, fmt.Errorf("无法获取仓库内容: %w", lastError)
}

func (c *Client) importBranch(ctx context.Context, owner, repo, branch, token, rootName string) (*models.ProcessResult, error) {
	entries, err := c.listTree(ctx, owner, repo, branch, token)
	if err != nil {
		return nil, err
	}

	builder := filetree.NewBuilder(rootName)
	var priorityPaths, regularPaths, skipped []string

	for _, item := range entries {
		switch item.Type {
		case "tree":
			if err := builder.AddFolder(item.Path); err != nil {
				skipped = append(skipped, item.Path)
			}
			continue
		case "blob":
		default:
			continue
		}

		if c.config.IsExcluded(item.Path, uint64(item.Size)) {
			skipped = append(skipped, item.Path)
			continue
		}
		name := path.Base(item.Path)
		switch {
		case importantFiles[name] || priorityExtensions[strings.ToLower(path.Ext(name))]:
			priorityPaths = append(priorityPaths, item.Path)
		case c.config.IsLikelyTextFile(item.Path):
			regularPaths = append(regularPaths, item.Path)
		default:
			skipped = append(skipped, item.Path)
		}
	}

	if len(regularPaths) > maxRegularFiles {
		logger.Debug("常规文件过多，截断", zap.Int("count", len(regularPaths)), zap.Int("limit", maxRegularFiles))
		skipped = append(skipped, regularPaths[maxRegularFiles:]...)
		regularPaths = regularPaths[:maxRegularFiles]
	}

	fileContents := make(map[string]models.FileContent)
	for _, p := range append(priorityPaths, regularPaths...) {
		content, err := c.fetchRaw(ctx, owner, repo, branch, p, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("获取文件内容失败", zap.String("path", p), zap.Error(err))
			skipped = append(skipped, p)
			continue
		}
		if err := builder.Add(p, content); err != nil {
			skipped = append(skipped, p)
			continue
		}
		fileContents[p] = models.FileContent{Path: p, Content: content}
	}

	return &models.ProcessResult{
		Tree:         builder.Tree(),
		FileContents: fileContents,
		Skipped:      skipped,
	}, nil
}

// listTree 获取递归树结构
func (c *Client) listTree(ctx context.Context, owner, repo, branch, token string) ([]treeEntry, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", c.apiBase, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
	resp, err := c.makeRequest(ctx, apiURL, token)
	if err != nil {
		return nil, fmt.Errorf("请求仓库树失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("GitHub API 请求失败: %s - %s", resp.Status, string(body))
	}

	var treeResp struct {
		Tree      []treeEntry `json:"tree"`
		Truncated bool        `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&treeResp); err != nil {
		return nil, fmt.Errorf("解析树响应失败: %w", err)
	}
	if treeResp.Truncated {
		logger.Warn("仓库树被截断，可能不包含所有文件", zap.String("repo", owner+"/"+repo))
	}
	return treeResp.Tree, nil
}

// fetchRaw 获取文件原始内容
func (c *Client) fetchRaw(ctx context.Context, owner, repo, branch, filePath, token string) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch), filePath)
	resp, err := c.makeRequest(ctx, rawURL, token)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("获取文件内容失败: %s", resp.Status)
	}

	limit := c.config.GetMaxFileSize()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}
	if int64(len(body)) > limit {
		return "", fmt.Errorf("文件过大")
	}
	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "text/") && !c.config.IsTextContentTypeException(contentType) {
		return "", fmt.Errorf("检测到二进制内容 %s", contentType)
	}
	return string(body), nil
}

// makeRequest 发送 HTTP 请求
func (c *Client) makeRequest(ctx context.Context, rawURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "Project-Scaffold-Web/1.0")

	return c.httpClient.Do(req)
}

var repoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`),
	regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`),
}

// ParseRepoURL 解析 GitHub 仓库 URL
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	for _, re := range repoURLPatterns {
		matches := re.FindStringSubmatch(strings.TrimSpace(repoURL))
		if len(matches) == 3 {
			return matches[1], strings.TrimSuffix(matches[2], ".git"), nil
		}
	}
	return "", "", ErrInvalidRepoURL
}
