package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-scaffold-web/internal/app/service"
	"project-scaffold-web/internal/application"
	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/infrastructure/gemini"
	"project-scaffold-web/internal/infrastructure/github"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
	"project-scaffold-web/pkg/types"
)

// statusOf 把领域错误映射为 HTTP 状态码
func statusOf(err error) int {
	var noEntry *services.NoEntryError
	var genErr *service.GenerationError
	var param *paramError
	switch {
	case errors.As(err, &param):
		return http.StatusBadRequest
	case errors.Is(err, gemini.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	case errors.As(err, &noEntry),
		errors.Is(err, filetree.ErrPathNotFound),
		errors.Is(err, models.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, filetree.ErrNotAFolder),
		errors.Is(err, filetree.ErrNotAFile),
		errors.Is(err, filetree.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, filetree.ErrMalformedInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, filetree.ErrInvalidName),
		errors.Is(err, service.ErrPromptRequired),
		errors.Is(err, service.ErrPromptTooLong),
		errors.Is(err, models.ErrInvalidIdeation),
		errors.Is(err, application.ErrInvalidProject),
		errors.Is(err, github.ErrInvalidRepoURL):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError 统一错误响应 {"success": false, "error": "..."}
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	resp := types.Response{Success: false, Error: err.Error()}

	var noEntry *services.NoEntryError
	var genErr *service.GenerationError
	switch {
	case errors.As(err, &noEntry):
		resp.Details = gin.H{"available": noEntry.Available}
	case errors.As(err, &genErr) && genErr.Fallback != nil:
		resp.Fallback = true
		resp.Data = gin.H{"tree": genErr.Fallback}
	}

	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("请求处理失败", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("请求错误", zap.Int("status", status), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// badRequest 参数错误
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, types.Response{Success: false, Error: msg})
}

// ok 成功响应
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, types.Response{Success: true, Data: data})
}
