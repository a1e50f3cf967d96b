package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 表示应用程序的配置
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
		Mode string `yaml:"mode"` // gin 模式: debug, release, test
	} `yaml:"server"`

	Gemini struct {
		APIKey         string  `yaml:"api_key"`
		APIEndpoint    string  `yaml:"api_endpoint"`
		Model          string  `yaml:"model"`
		ProxyURL       string  `yaml:"proxy_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxRetries     int     `yaml:"max_retries"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"gemini"`

	Github struct {
		APIKey  string `yaml:"api_key"`
		APIBase string `yaml:"api_base"`
		RawBase string `yaml:"raw_base"`
	} `yaml:"github"`

	Logging struct {
		Level      string `yaml:"level"`       // 日志级别: debug, info, warn, error
		OutputPath string `yaml:"output_path"` // 日志输出路径
	} `yaml:"logging"`

	Limits struct {
		MaxPromptLength int   `yaml:"max_prompt_length"`
		MaxUploadSize   int64 `yaml:"max_upload_size"` // MB
		MaxFileSize     int64 `yaml:"max_file_size"`   // MB
		RateLimitRPM    int   `yaml:"rate_limit_rpm"`  // 0 表示不限制
	} `yaml:"limits"`

	Database struct {
		URL string `yaml:"url"` // 为空时使用内存存储
	} `yaml:"database"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"` // 为空时关闭鉴权
	} `yaml:"auth"`

	Tree struct {
		RootName             string   `yaml:"root_name"`
		RejectDuplicateNames bool     `yaml:"reject_duplicate_names"`
		EntryCandidates      []string `yaml:"entry_candidates"`
	} `yaml:"tree"`

	Preview struct {
		ReactURL    string `yaml:"react_url"`
		ReactDOMURL string `yaml:"react_dom_url"`
		BabelURL    string `yaml:"babel_url"`
		TailwindURL string `yaml:"tailwind_url"`
	} `yaml:"preview"`

	ExcludedDirPrefixes []string `yaml:"excluded_dir_prefixes"`
	ExcludedExtensions  []string `yaml:"excluded_extensions"`
	TextExtensions      []string `yaml:"text_extensions"`
	TextFilenames       []string `yaml:"text_filenames"`
	TextMimeTypes       []string `yaml:"text_mime_types"`

	// 运行时缓存
	excludedExtMap map[string]struct{}
	textExtMap     map[string]struct{}
	textMimeMap    map[string]struct{}
}

var (
	config *Config
	once   sync.Once
)

// Load 加载配置文件，先读取 .env 再读取 YAML，最后用环境变量覆盖密钥
func Load(configPath string) error {
	var err error
	once.Do(func() {
		// .env 不存在时忽略
		_ = godotenv.Load()

		var data []byte
		data, err = os.ReadFile(configPath)
		if err != nil {
			return
		}
		config, err = Parse(data)
	})
	return err
}

// Get 返回配置实例
func Get() *Config {
	return config
}

// Parse 解析 YAML 配置并补全默认值
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.init()
	return cfg, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.init()
	return cfg
}

// applyEnv 尝试从环境变量读取密钥
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GITHUB_API_KEY"); v != "" {
		c.Github.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

// init 初始化映射
func (c *Config) init() {
	c.excludedExtMap = make(map[string]struct{})
	c.textExtMap = make(map[string]struct{})
	c.textMimeMap = make(map[string]struct{})

	for _, ext := range c.ExcludedExtensions {
		c.excludedExtMap[ext] = struct{}{}
	}
	for _, ext := range c.TextExtensions {
		c.textExtMap[ext] = struct{}{}
	}
	for _, mime := range c.TextMimeTypes {
		c.textMimeMap[mime] = struct{}{}
	}
}

// IsExcluded 检查文件是否应该被排除
func (c *Config) IsExcluded(filePath string, fileSize uint64) bool {
	if fileSize > uint64(c.GetMaxFileSize()) {
		return true
	}

	// 规范化路径
	normalizedPath := filepath.ToSlash(filePath)

	// 检查目录前缀
	for _, prefix := range c.ExcludedDirPrefixes {
		if strings.HasPrefix(normalizedPath, prefix) || strings.Contains(normalizedPath, "/"+prefix) {
			return true
		}
	}

	// 检查扩展名
	ext := strings.ToLower(filepath.Ext(normalizedPath))
	_, excluded := c.excludedExtMap[ext]
	return excluded
}

// IsLikelyTextFile 检查文件是否可能是文本文件
func (c *Config) IsLikelyTextFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	if _, ok := c.textExtMap[ext]; ok {
		return true
	}

	// 处理无扩展名的常见文本文件
	baseName := filepath.Base(filePath)
	for _, name := range c.TextFilenames {
		if name == baseName {
			return true
		}
	}
	return false
}

// IsTextContentTypeException 检查MIME类型是否为文本类型的例外
func (c *Config) IsTextContentTypeException(contentType string) bool {
	_, isException := c.textMimeMap[contentType]
	return isException
}

// GetServerAddr 返回监听地址
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// GetServerMode 返回 gin 运行模式
func (c *Config) GetServerMode() string {
	if c.Server.Mode == "" {
		return "release"
	}
	return c.Server.Mode
}

// GetMaxUploadSize 返回最大上传大小（字节）
func (c *Config) GetMaxUploadSize() int64 {
	if c.Limits.MaxUploadSize <= 0 {
		return 50 * 1024 * 1024
	}
	return c.Limits.MaxUploadSize * 1024 * 1024
}

// GetMaxFileSize 返回最大文件大小（字节）
func (c *Config) GetMaxFileSize() int64 {
	if c.Limits.MaxFileSize <= 0 {
		return 2 * 1024 * 1024
	}
	return c.Limits.MaxFileSize * 1024 * 1024
}

// GetMaxPromptLength 返回提示词最大长度
func (c *Config) GetMaxPromptLength() int {
	if c.Limits.MaxPromptLength <= 0 {
		return 1000
	}
	return c.Limits.MaxPromptLength
}

// GetRateLimitRPM 返回每分钟允许的 AI 请求数
func (c *Config) GetRateLimitRPM() int {
	if c.Limits.RateLimitRPM < 0 {
		return 0
	}
	return c.Limits.RateLimitRPM
}

// GetGeminiAPIKey 返回 Gemini API 密钥
func (c *Config) GetGeminiAPIKey() string {
	return c.Gemini.APIKey
}

// GetGeminiApiEndpoint 返回 Gemini API 地址
func (c *Config) GetGeminiApiEndpoint() string {
	if c.Gemini.APIEndpoint == "" {
		return "https://generativelanguage.googleapis.com/v1beta/models"
	}
	return strings.TrimRight(c.Gemini.APIEndpoint, "/")
}

// GetGeminiModel 返回 Gemini 模型名称
func (c *Config) GetGeminiModel() string {
	if c.Gemini.Model == "" {
		return "gemini-2.0-flash-exp"
	}
	return c.Gemini.Model
}

// GetGeminiProxyURL 返回 Gemini 代理地址
func (c *Config) GetGeminiProxyURL() string {
	return c.Gemini.ProxyURL
}

// GetGeminiTimeoutSeconds 返回整体请求超时
func (c *Config) GetGeminiTimeoutSeconds() int {
	if c.Gemini.TimeoutSeconds <= 0 {
		return 180
	}
	return c.Gemini.TimeoutSeconds
}

// GetGeminiMaxRetries 返回最大重试次数
func (c *Config) GetGeminiMaxRetries() int {
	if c.Gemini.MaxRetries <= 0 {
		return 3
	}
	return c.Gemini.MaxRetries
}

// GetGeminiTemperature 返回生成温度
func (c *Config) GetGeminiTemperature() float64 {
	if c.Gemini.Temperature <= 0 {
		return 0.7
	}
	return c.Gemini.Temperature
}

// GetGithubAPIKey 返回 GitHub API 密钥
func (c *Config) GetGithubAPIKey() string {
	return c.Github.APIKey
}

// GetGithubAPIBase 返回 GitHub API 地址
func (c *Config) GetGithubAPIBase() string {
	if c.Github.APIBase == "" {
		return "https://api.github.com"
	}
	return strings.TrimRight(c.Github.APIBase, "/")
}

// GetGithubRawBase 返回 GitHub 原始文件地址
func (c *Config) GetGithubRawBase() string {
	if c.Github.RawBase == "" {
		return "https://raw.githubusercontent.com"
	}
	return strings.TrimRight(c.Github.RawBase, "/")
}

// GetLogLevel 返回日志级别
func (c *Config) GetLogLevel() string {
	if c.Logging.Level == "" {
		return "info" // 默认日志级别
	}
	return c.Logging.Level
}

// GetLogOutputPath 返回日志输出路径
func (c *Config) GetLogOutputPath() string {
	if c.Logging.OutputPath == "" {
		return "./logs" // 默认日志目录
	}
	return c.Logging.OutputPath
}

// GetDatabaseURL 返回数据库连接串
func (c *Config) GetDatabaseURL() string {
	return c.Database.URL
}

// GetJWTSecret 返回 JWT 签名密钥
func (c *Config) GetJWTSecret() string {
	return c.Auth.JWTSecret
}

// GetRootName 返回项目根目录名
func (c *Config) GetRootName() string {
	if c.Tree.RootName == "" {
		return "project-root"
	}
	return c.Tree.RootName
}

// RejectDuplicateNames 是否拒绝同级重名节点
func (c *Config) RejectDuplicateNames() bool {
	return c.Tree.RejectDuplicateNames
}

// GetEntryCandidates 返回预览入口文件候选路径，为空时返回 nil 由调用方使用默认值
func (c *Config) GetEntryCandidates() []string {
	return c.Tree.EntryCandidates
}

// GetPreviewReactURL 返回 React CDN 地址
func (c *Config) GetPreviewReactURL() string {
	if c.Preview.ReactURL == "" {
		return "https://unpkg.com/react@18/umd/react.development.js"
	}
	return c.Preview.ReactURL
}

// GetPreviewReactDOMURL 返回 ReactDOM CDN 地址
func (c *Config) GetPreviewReactDOMURL() string {
	if c.Preview.ReactDOMURL == "" {
		return "https://unpkg.com/react-dom@18/umd/react-dom.development.js"
	}
	return c.Preview.ReactDOMURL
}

// GetPreviewBabelURL 返回 Babel CDN 地址
func (c *Config) GetPreviewBabelURL() string {
	if c.Preview.BabelURL == "" {
		return "https://unpkg.com/@babel/standalone/babel.min.js"
	}
	return c.Preview.BabelURL
}

// GetPreviewTailwindURL 返回 Tailwind CDN 地址
func (c *Config) GetPreviewTailwindURL() string {
	if c.Preview.TailwindURL == "" {
		return "https://cdn.tailwindcss.com"
	}
	return c.Preview.TailwindURL
}
