package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-scaffold-web/internal/app/service"
	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/logger"
)

// AIHandler AI 生成相关的 HTTP 处理器
type AIHandler struct {
	ai    *service.AIService
	model string
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(ai *service.AIService, model string) *AIHandler {
	return &AIHandler{ai: ai, model: model}
}

// HandleIdeation POST /api/ai/ideation
func (h *AIHandler) HandleIdeation(c *gin.Context) {
	var req models.IdeationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	ideation, err := h.ai.GenerateIdeation(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, ideation)
}

// HandleIdeationStream POST /api/ai/ideation/stream，以 SSE 转发模型输出
func (h *AIHandler) HandleIdeationStream(c *gin.Context) {
	var req models.IdeationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	chunks, err := h.ai.GenerateIdeationStream(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, open := <-chunks:
			if !open {
				c.SSEvent("done", gin.H{"success": true})
				c.Writer.Flush()
				return
			}
			if chunk.Error != nil {
				logger.FromContext(ctx).Warn("流式生成中断", zap.Error(chunk.Error))
				c.SSEvent("error", gin.H{"success": false, "error": chunk.Error.Error()})
				c.Writer.Flush()
				return
			}
			c.SSEvent("chunk", gin.H{"text": chunk.Text, "finishReason": chunk.FinishReason})
			c.Writer.Flush()
		}
	}
}

// HandleGenerateCode POST /api/ai/generate-code
func (h *AIHandler) HandleGenerateCode(c *gin.Context) {
	var req models.GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	tree, err := h.ai.GenerateCode(c.Request.Context(), req.Ideation, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"tree": tree})
}

// HandleWorkflow POST /api/ai/workflow
func (h *AIHandler) HandleWorkflow(c *gin.Context) {
	var req models.WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数: "+err.Error())
		return
	}
	wf, err := h.ai.RunWorkflow(c.Request.Context(), req.Prompt, req.Options)
	if err != nil {
		if wf != nil {
			c.JSON(statusOf(err), gin.H{"success": false, "error": err.Error(), "data": wf})
			return
		}
		respondError(c, err)
		return
	}
	ok(c, wf)
}

// HandleHealth GET /api/ai/health
func (h *AIHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "AI service is running",
		"model":     h.model,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
