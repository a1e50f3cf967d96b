package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/logger"
)

// ErrNotConfigured 未配置 API 密钥
var ErrNotConfigured = errors.New("GEMINI_API_KEY is not configured")

// APIError Gemini 返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API 返回错误: %s (%d): %s", e.Status, e.StatusCode, e.Body)
}

// Client 是 Gemini API 客户端
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

// GeminiRequest Gemini API 请求结构
type GeminiRequest struct {
	Contents         []Content                `json:"contents"`
	GenerationConfig *models.GenerationConfig `json:"generationConfig,omitempty"`
}

// Content 内容结构
type Content struct {
	Parts []Part `json:"parts"`
}

// Part 内容片段
type Part struct {
	Text string `json:"text"`
}

// GeminiResponse Gemini API 响应结构
type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback"`
}

// text 返回第一个候选的文本
func (r *GeminiResponse) text() (string, string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", "", false
	}
	c := r.Candidates[0]
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), c.FinishReason, true
}

// StreamChunk 表示流式响应的一个片段
type StreamChunk struct {
	Text         string
	FinishReason string
	Error        error
}

// getProxy 获取代理配置
func getProxy(cfg *config.Config) func(*http.Request) (*url.URL, error) {
	// 检查配置中是否有明确的代理设置
	proxyURL := cfg.GetGeminiProxyURL()
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			logger.Warn("无效的代理URL配置，将使用系统代理",
				zap.String("proxy_url", proxyURL),
				zap.Error(err))
			return http.ProxyFromEnvironment
		}
		logger.Info("使用配置的Gemini API代理",
			zap.String("proxy_url", proxyURL))
		return http.ProxyURL(proxy)
	}

	// 否则使用系统环境变量中的代理
	return http.ProxyFromEnvironment
}

// NewClient 创建一个新的 Gemini 客户端
func NewClient(cfg *config.Config) *Client {
	transport := &http.Transport{
		Proxy: getProxy(cfg),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
	}

	if cfg.GetGeminiAPIKey() == "" {
		logger.Warn("GEMINI_API_KEY 未设置，AI 功能不可用")
	}

	return &Client{
		apiKey:     cfg.GetGeminiAPIKey(),
		endpoint:   cfg.GetGeminiApiEndpoint(),
		model:      cfg.GetGeminiModel(),
		maxRetries: cfg.GetGeminiMaxRetries(),
		retryDelay: 2 * time.Second,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.GetGeminiTimeoutSeconds()) * time.Second,
		},
	}
}

// Configured 是否配置了 API 密钥
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model 返回模型名称
func (c *Client) Model() string {
	return c.model
}

func (c *Client) newRequest(ctx context.Context, method string, body []byte, stream bool) (*http.Request, error) {
	action := "generateContent"
	if stream {
		action = "streamGenerateContent"
	}
	req, err := http.NewRequestWithContext(ctx, method,
		fmt.Sprintf("%s/%s:%s", c.endpoint, c.model, action), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	q := req.URL.Query()
	q.Add("key", c.apiKey)
	if stream {
		q.Add("alt", "sse")
		req.Header.Set("Accept", "text/event-stream")
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// sleep 等待重试间隔，context 取消时提前返回
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func encodeRequest(prompt models.Prompt) ([]byte, error) {
	reqBody := GeminiRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt.Text}}}},
	}
	if prompt.Config != (models.GenerationConfig{}) {
		cfg := prompt.Config
		reqBody.GenerationConfig = &cfg
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}
	return reqJSON, nil
}

// Generate 发送提示词到 Gemini API，5xx、网络错误和空响应会按指数退避重试
func (c *Client) Generate(ctx context.Context, prompt models.Prompt) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	logger.FromContext(ctx).Debug("准备发送提示词到 Gemini API",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(prompt.Text)))

	reqJSON, err := encodeRequest(prompt)
	if err != nil {
		return "", err
	}

	retryDelay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.FromContext(ctx).Info("重试 Gemini API 请求",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.maxRetries),
				zap.NamedError("last_error", lastErr))
			if err := sleep(ctx, retryDelay); err != nil {
				return "", err
			}
			// 指数退避策略
			retryDelay *= 2
		}

		text, retry, err := c.generateOnce(ctx, reqJSON)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("Gemini API 请求失败，已达到最大重试次数: %w", lastErr)
}

// generateOnce 执行一次请求，返回值 retry 表示错误是否值得重试
func (c *Client) generateOnce(ctx context.Context, reqJSON []byte) (string, bool, error) {
	req, err := c.newRequest(ctx, http.MethodPost, reqJSON, false)
	if err != nil {
		return "", false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bodyBytes)}
		return "", resp.StatusCode >= 500, apiErr
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", true, fmt.Errorf("解析响应失败: %w", err)
	}

	if geminiResp.PromptFeedback.BlockReason != "" {
		return "", false, fmt.Errorf("提示词被阻止: %s", geminiResp.PromptFeedback.BlockReason)
	}

	text, finish, ok := geminiResp.text()
	if !ok {
		return "", true, fmt.Errorf("API 返回空响应")
	}

	logger.FromContext(ctx).Debug("从 Gemini 收到响应",
		zap.Int("response_length", len(text)),
		zap.String("finish_reason", finish))
	return text, false, nil
}

// GenerateStream 流式发送提示词，返回的通道在流结束或出错后关闭
func (c *Client) GenerateStream(ctx context.Context, prompt models.Prompt) (<-chan StreamChunk, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	reqJSON, err := encodeRequest(prompt)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, reqJSON, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bodyBytes)}
	}

	resultChan := make(chan StreamChunk, 16)
	go func() {
		defer close(resultChan)
		defer resp.Body.Close()

		send := func(chunk StreamChunk) bool {
			select {
			case resultChan <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		// 增加缓冲区大小以支持更长的行
		const maxScanTokenSize = 1024 * 1024
		scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return
			}

			var streamResp GeminiResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				if !send(StreamChunk{Error: fmt.Errorf("解析响应失败: %w", err)}) {
					return
				}
				continue
			}
			if streamResp.PromptFeedback.BlockReason != "" {
				send(StreamChunk{Error: fmt.Errorf("提示词被阻止: %s", streamResp.PromptFeedback.BlockReason)})
				return
			}
			text, finish, ok := streamResp.text()
			if !ok {
				continue
			}
			if !send(StreamChunk{Text: text, FinishReason: finish}) {
				return
			}
			if finish != "" {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			send(StreamChunk{Error: fmt.Errorf("读取流失败: %w", err)})
		}
	}()

	return resultChan, nil
}
