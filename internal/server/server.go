package server

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"actreco/internal/config"
	"actreco/internal/pipeline"
	"actreco/internal/store"
)

// Server HTTP服务器
type Server struct {
	router      *gin.Engine
	store       *store.Store
	coordinator *pipeline.Coordinator
	logger      *log.Logger

	// 文档会话按顺序执行
	runMu sync.Mutex
}

// NewServer 创建服务器；store 可为 nil（不提供运行记录查询）
func NewServer(cfg *config.AppConfig, st *store.Store, coordinator *pipeline.Coordinator, logger *log.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		router:      gin.New(),
		store:       st,
		coordinator: coordinator,
		logger:      logger,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/health", s.Health)

		// 运行记录
		api.GET("/runs", s.ListRuns)
		api.GET("/runs/:id", s.GetRun)

		// 流程
		api.POST("/acts", s.CreateAct)
		api.GET("/acts/latest", s.LatestActs)
		api.POST("/scans", s.CreateScan)
		api.POST("/fills", s.CreateFill)
		api.POST("/batches", s.CreateBatch)
		api.POST("/tabs", s.CreateTabs)
		api.POST("/contracts", s.CreateContract)
	}

	s.router.NoRoute(func(c *gin.Context) {
		errorResponse(c, http.StatusNotFound, CodeNotFound, "接口不存在")
	})
}

// requestLogger 访问日志
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	s.logger.Info("HTTP 服务已启动", "addr", addr)
	return s.router.Run(addr)
}
