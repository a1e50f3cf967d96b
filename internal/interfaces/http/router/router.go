// Package router wires handlers and middleware into a gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"project-scaffold-web/internal/app/service"
	"project-scaffold-web/internal/application"
	"project-scaffold-web/internal/interfaces/http/handlers"
	"project-scaffold-web/internal/interfaces/http/middleware"
	"project-scaffold-web/internal/metrics"
	"project-scaffold-web/pkg/config"
)

// Deps 构建路由所需的服务
type Deps struct {
	Config   *config.Config
	AI       *service.AIService
	Projects *application.ProjectService
	Files    *application.FileService
	Model    string
	Limiter  *middleware.RateLimiter
}

// New 创建 gin 引擎并注册全部路由
func New(d Deps) *gin.Engine {
	cfg := d.Config
	if d.Limiter == nil {
		d.Limiter = middleware.NewRateLimiter()
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.GetMaxUploadSize()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.NewAuth(cfg.GetJWTSecret())
	api := r.Group("/api", auth.Middleware())

	fileHandler := handlers.NewFileHandler(d.Files, cfg)
	api.POST("/combine-code", fileHandler.HandleCombineCode)
	api.GET("/github-code", fileHandler.HandleGitHubRepo)
	api.POST("/github-code", fileHandler.HandleGitHubRepo)

	aiHandler := handlers.NewAIHandler(d.AI, d.Model)
	api.GET("/ai/health", aiHandler.HandleHealth)
	ai := api.Group("/ai", d.Limiter.Limit(cfg.GetRateLimitRPM()))
	{
		ai.POST("/ideation", aiHandler.HandleIdeation)
		ai.POST("/ideation/stream", aiHandler.HandleIdeationStream)
		ai.POST("/generate-code", aiHandler.HandleGenerateCode)
		ai.POST("/workflow", aiHandler.HandleWorkflow)
	}

	ph := handlers.NewProjectHandler(d.Projects, d.Files, d.AI, cfg)
	projects := api.Group("/projects")
	{
		projects.GET("", ph.List)
		projects.POST("", ph.Create)
		projects.GET("/:id", ph.Get)
		projects.PATCH("/:id", ph.Update)
		projects.DELETE("/:id", ph.Delete)

		projects.GET("/:id/tree", ph.Tree)
		projects.GET("/:id/files", ph.Files)
		projects.GET("/:id/node", ph.Node)
		projects.POST("/:id/nodes", ph.InsertNode)
		projects.PUT("/:id/nodes", ph.UpdateNode)
		projects.DELETE("/:id/nodes", ph.DeleteNode)
		projects.POST("/:id/nodes/rename", ph.RenameNode)
		projects.GET("/:id/stats", ph.Stats)
		projects.GET("/:id/analysis", ph.Analysis)

		projects.GET("/:id/preview", ph.Preview)
		projects.POST("/:id/docs", ph.Docs)
		projects.POST("/:id/tests", ph.Tests)
		projects.POST("/:id/terminal", ph.Terminal)
		projects.POST("/:id/refine", d.Limiter.Limit(cfg.GetRateLimitRPM()), ph.Refine)

		projects.GET("/:id/blueprint.md", ph.Blueprint)
		projects.GET("/:id/export.zip", ph.ExportZip)
		projects.GET("/:id/combined", ph.Combined)
		projects.POST("/:id/import/zip", ph.ImportZip)
		projects.POST("/:id/import/github", ph.ImportGithub)
	}

	return r
}
