package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/auth"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/middleware"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/config"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/ratelimit"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/statcache"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端以及 Gin 路由引擎。所有持久状态都在
// 数据库里，Server 自身在请求之间不保存可变状态。
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *gorm.DB
	rdb        *redis.Client
	router     *gin.Engine
	auth       *auth.Handler
	taskStore  TaskStore
	statsCache *statcache.Cache
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis
// 3. 初始化 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true, // 把驱动的唯一键冲突翻译成 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		rdb:        rdb,
		router:     r,
		auth:       auth.NewHandler(db, cfg.Security.JWTSecret, cfg.Security.TokenTTL, logger),
		taskStore:  NewTaskStore(db),
		statsCache: statcache.New(rdb, cfg.App.StatsCacheTTL),
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/api/health", s.handleHealth)

	limiter := ratelimit.NewRedisRateLimiter(s.rdb, "taskapi:ratelimit:auth:", s.cfg.App.RateLimit, s.cfg.App.RateBurst)

	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", middleware.RateLimitMiddleware(limiter, s.logger), s.auth.Register)
	authGroup.POST("/login", middleware.RateLimitMiddleware(limiter, s.logger), s.auth.Login)
	authGroup.GET("/me", middleware.AuthMiddleware(s.cfg.Security.JWTSecret), s.auth.Me)

	tasks := s.router.Group("/api/tasks")
	tasks.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))
	tasks.GET("", s.handleListTasks)
	tasks.GET("/stats/summary", s.handleTaskStats)
	tasks.GET("/:id", s.handleGetTask)
	tasks.POST("", s.handleCreateTask)
	tasks.PUT("/:id", s.handleUpdateTask)
	tasks.PATCH("/:id/status", s.handleUpdateTaskStatus)
	tasks.DELETE("/:id", s.handleDeleteTask)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
}

// handleHealth 健康检查：确认 MySQL 与 Redis 均可访问。
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service unavailable"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service unavailable"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Task Management API is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.cfg.App.Env,
	})
}
