// Package server 提供平台的 HTTP API：钱包绑定、任务、成就、团队与消息历史。
// 实时消息经由 /ws 升级入口进入 internal/ws 子系统
package server

import (
	"context"
	"net/http"
	"time"

	"questhub/internal/cache"
	"questhub/internal/logger"
	"questhub/internal/server/middleware"
	"questhub/internal/storage"
	"questhub/internal/web3"
	"questhub/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options 服务器选项
type Options struct {
	// AuthSecret 令牌签名密钥（必填）
	AuthSecret string

	// AllowOrigins CORS 白名单（默认允许所有源）
	AllowOrigins []string

	// RateLimit 每秒请求数上限（<=0 时不启用限流）
	RateLimit float64

	// CatalogTTL 任务目录缓存时间（默认 1 分钟）
	CatalogTTL time.Duration
}

// Server HTTP 服务器
type Server struct {
	store    *storage.Store
	cache    *cache.SingleflightCache
	web3     web3.Verifier
	realtime *ws.Service
	logger   logger.Logger
	opts     Options
	engine   *gin.Engine
}

// New 创建 HTTP 服务器并装配全部路由
func New(
	store *storage.Store,
	c cache.Cache,
	verifier web3.Verifier,
	realtime *ws.Service,
	log logger.Logger,
	opts Options,
) *Server {
	if opts.CatalogTTL <= 0 {
		opts.CatalogTTL = time.Minute
	}

	s := &Server{
		store:    store,
		cache:    cache.NewSingleflightCache(c),
		web3:     verifier,
		realtime: realtime,
		logger:   log,
		opts:     opts,
	}
	s.engine = s.buildEngine()
	return s
}

// Handler 返回底层 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logger(s.logger, &middleware.LoggerConfig{
		Logger:       s.logger,
		ExcludePaths: []string{"/health"},
	}))

	corsConfig := middleware.DefaultCORSConfig()
	if len(s.opts.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = s.opts.AllowOrigins
	}
	engine.Use(middleware.CORS(corsConfig))

	if s.opts.RateLimit > 0 {
		engine.Use(middleware.RateLimiter(&middleware.RateLimiterConfig{
			RequestsPerSecond: s.opts.RateLimit,
			Burst:             int(s.opts.RateLimit),
			Logger:            s.logger,
			ExcludePaths:      []string{"/health", "/ws"},
		}))
	}

	engine.GET("/health", s.handleHealth)

	// WebSocket 升级入口，身份由查询参数携带
	engine.GET("/ws", func(c *gin.Context) {
		s.realtime.HandleUpgrade(c.Writer, c.Request)
	})

	api := engine.Group("/api", middleware.Auth(s.opts.AuthSecret))
	{
		api.POST("/connect-wallet", s.handleConnectWallet)
		api.POST("/disconnect-wallet", s.handleDisconnectWallet)

		api.GET("/quests", s.handleListQuests)
		api.POST("/quests", middleware.RequireAdmin(s.store.GetUser), s.handleCreateQuest)
		api.POST("/quests/:id/complete", s.handleCompleteQuest)

		api.GET("/achievements", s.handleListAchievements)

		api.POST("/teams", s.handleCreateTeam)
		api.GET("/teams", s.handleListTeams)
		api.POST("/teams/:id/join", s.handleJoinTeam)
		api.POST("/teams/:id/leave", s.handleLeaveTeam)
		api.GET("/teams/:id/messages", s.handleTeamMessages)
	}

	return engine
}

// handleHealth 健康检查
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// notifyUser 尽力而为地向用户推送实时通知，失败只记录日志
func (s *Server) notifyUser(userID int64, content string) {
	if s.realtime == nil {
		return
	}
	envelope := &ws.NotificationEnvelope{
		Type:      "notification",
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.realtime.Broadcaster().SendToUser(userID, envelope); err != nil {
		s.logger.Warn("push notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// requestContext 请求上下文
func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
