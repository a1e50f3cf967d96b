package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-scaffold-web/internal/app/service"
	"project-scaffold-web/internal/application"
	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/internal/infrastructure/gemini"
	"project-scaffold-web/internal/infrastructure/github"
	"project-scaffold-web/internal/infrastructure/memory"
	"project-scaffold-web/internal/infrastructure/postgres"
	"project-scaffold-web/internal/interfaces/http/middleware"
	"project-scaffold-web/internal/interfaces/http/router"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		panic("加载配置失败: " + err.Error())
	}
	cfg := config.Get()

	logger.Init(cfg.GetLogLevel(), cfg.GetLogOutputPath())
	defer logger.Sync()

	gin.SetMode(cfg.GetServerMode())

	// 选择项目存储
	var store application.ProjectStore
	if dbURL := cfg.GetDatabaseURL(); dbURL != "" {
		pg, err := postgres.New(dbURL)
		if err != nil {
			logger.Fatal("连接数据库失败", zap.Error(err))
		}
		defer pg.Close()
		store = pg
		logger.Info("使用 PostgreSQL 存储项目")
	} else {
		store = memory.NewProjectStore()
		logger.Info("使用内存存储项目")
	}

	geminiClient := gemini.NewClient(cfg)
	if !geminiClient.Configured() {
		logger.Warn("未配置 GEMINI_API_KEY，AI 接口将返回 503")
	}

	limiter := middleware.NewRateLimiter()
	engine := router.New(router.Deps{
		Config:   cfg,
		AI:       service.NewAIService(cfg, geminiClient),
		Projects: application.NewProjectService(cfg, store),
		Files:    application.NewFileService(services.NewFileProcessor(cfg), github.NewClient(cfg)),
		Model:    geminiClient.Model(),
		Limiter:  limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 定期清理限流桶
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(time.Hour)
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("启动服务", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("启动 Gin 服务失败", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭服务失败", zap.Error(err))
	}
}
