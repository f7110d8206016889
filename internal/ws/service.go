package ws

import (
	"net/http"
	"strconv"

	"questhub/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Store 实时消息子系统所需的全部存储能力
type Store interface {
	ChatStore
}

// Service 实时消息服务
// 组装连接注册表、消息路由器与团队广播引擎，
// 对外暴露 HTTP 升级入口和优雅关闭
type Service struct {
	registry    *Registry
	router      *Router
	broadcaster *Broadcaster
	upgrader    *websocket.Upgrader
	logger      logger.Logger
	metrics     Metrics
	config      *Config
}

// NewService 创建实时消息服务
func NewService(store Store, log logger.Logger, opts ...Option) (*Service, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
		config.Metrics = metrics
	}

	registry := NewRegistry(config.MaxConnections)
	broadcaster := NewBroadcaster(registry, store, log, config)
	router := NewRouter(store, broadcaster, log, config)

	return &Service{
		registry:    registry,
		router:      router,
		broadcaster: broadcaster,
		upgrader:    newUpgrader(config),
		logger:      log,
		metrics:     metrics,
		config:      config,
	}, nil
}

// Registry 返回连接注册表（供管理接口查询在线状态）
func (s *Service) Registry() *Registry {
	return s.registry
}

// Broadcaster 返回广播引擎（供业务层推送系统通知）
func (s *Service) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// HandleUpgrade 处理 WebSocket 升级请求
// 要求查询参数携带 userId（正整数）与 sessionId（非空）；
// 参数非法时以 1008 策略违规关闭，不注册任何连接
func (s *Service) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.IncrementHandshakeRejections()
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID, sessionID, err := parseIdentity(r)
	if err != nil {
		s.metrics.IncrementHandshakeRejections()
		s.logger.Warn("handshake rejected",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		s.rejectConn(conn, err.Error())
		return
	}

	c := newConn(conn, userID, sessionID, s.config)

	// 握手确认必须是连接收到的第一帧：先入队再注册，
	// 注册后到来的广播只能排在它之后
	if err := c.SendJSON(NewConnectedEnvelope(userID)); err != nil {
		s.logger.Warn("send connected envelope failed",
			zap.String("conn_id", c.ID),
			zap.Error(err),
		)
	}

	if err := s.registry.Register(c); err != nil {
		s.metrics.IncrementHandshakeRejections()
		s.logger.Warn("registration rejected",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		s.rejectConn(conn, "too many connections")
		return
	}

	s.metrics.IncrementConnections()
	s.metrics.SetConnectionCount(s.registry.Count())
	s.logger.Info("connection established",
		zap.String("conn_id", c.ID),
		zap.Int64("user_id", userID),
		zap.String("session_id", sessionID),
	)

	go c.run(s.router.handle, s.onClose)
}

// onClose 连接关闭时的收尾（恰好执行一次）
func (s *Service) onClose(c *Conn) {
	s.registry.Deregister(c.UserID, c.SessionID)
	s.metrics.DecrementConnections()
	s.metrics.SetConnectionCount(s.registry.Count())
	s.logger.Info("connection closed",
		zap.String("conn_id", c.ID),
		zap.Int64("user_id", c.UserID),
		zap.String("session_id", c.SessionID),
	)
}

// Shutdown 关闭全部在线连接
func (s *Service) Shutdown() {
	for _, conn := range s.registry.All() {
		conn.Close()
	}
	s.logger.Info("websocket service stopped")
}

// rejectConn 升级完成后拒绝连接，向客户端下发策略违规关闭帧
func (s *Service) rejectConn(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}

// parseIdentity 从查询参数解析连接身份
func parseIdentity(r *http.Request) (int64, string, error) {
	rawUserID := r.URL.Query().Get("userId")
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", ErrInvalidUserID
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		return 0, "", ErrInvalidSessionID
	}

	return userID, sessionID, nil
}
