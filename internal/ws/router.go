package ws

import (
	"context"
	"time"

	"questhub/internal/logger"
	"questhub/internal/model"

	"go.uber.org/zap"
)

// ChatStore 消息路由所需的存储协作方
type ChatStore interface {
	// InsertChatMessage 持久化团队聊天消息并返回存储后的记录
	InsertChatMessage(ctx context.Context, senderID, teamID int64, content string) (*model.ChatMessage, error)
	// GetUser 查询用户（用于补充发送者昵称）
	GetUser(ctx context.Context, id int64) (*model.User, error)
	// GetTeamMembers 查询团队成员列表
	GetTeamMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error)
}

// Router 入站消息路由器
// 每条帧在连接的读协程内同步处理，保证同一发送者的消息有序
type Router struct {
	store       ChatStore
	broadcaster *Broadcaster
	logger      logger.Logger
	metrics     Metrics
}

// NewRouter 创建消息路由器
func NewRouter(store ChatStore, broadcaster *Broadcaster, log logger.Logger, config *Config) *Router {
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Router{
		store:       store,
		broadcaster: broadcaster,
		logger:      log,
		metrics:     metrics,
	}
}

// handle 处理一条入站帧
// 无法解析的帧只记录日志并丢弃，连接保持打开
func (r *Router) handle(conn *Conn, data []byte) {
	inbound, err := DecodeInbound(data)
	if err != nil {
		r.metrics.IncrementInvalidMessages()
		r.logger.Warn("invalid message dropped",
			zap.Int64("user_id", conn.UserID),
			zap.String("session_id", conn.SessionID),
			zap.Error(err),
		)
		return
	}

	switch msg := inbound.(type) {
	case ChatInbound:
		r.metrics.IncrementMessageCount("chat")
		r.handleChat(conn, msg)
	case NotificationInbound:
		r.metrics.IncrementMessageCount("notification")
		r.handleNotification(conn, msg)
	case UnknownInbound:
		// 未知类型静默忽略，保持对旧客户端的前向兼容
		r.logger.Debug("unknown message type ignored",
			zap.String("type", msg.Kind),
			zap.Int64("user_id", conn.UserID),
		)
	}
}

// handleChat 团队聊天：校验成员身份、落库、再向团队扇出
// 落库或查询失败时跳过广播，发送者不会收到错误回执
func (r *Router) handleChat(conn *Conn, msg ChatInbound) {
	ctx := context.Background()

	members, err := r.store.GetTeamMembers(ctx, msg.TeamID)
	if err != nil {
		r.metrics.IncrementPersistenceErrors()
		r.logger.Error("load team members failed",
			zap.Int64("team_id", msg.TeamID),
			zap.Error(err),
		)
		return
	}
	if !containsMember(members, conn.UserID) {
		r.logger.Warn("chat from non-member dropped",
			zap.Int64("user_id", conn.UserID),
			zap.Int64("team_id", msg.TeamID),
		)
		return
	}

	stored, err := r.store.InsertChatMessage(ctx, conn.UserID, msg.TeamID, msg.Content)
	if err != nil {
		r.metrics.IncrementPersistenceErrors()
		r.logger.Error("persist chat message failed",
			zap.Int64("user_id", conn.UserID),
			zap.Int64("team_id", msg.TeamID),
			zap.Error(err),
		)
		return
	}

	senderName := ""
	if sender, err := r.store.GetUser(ctx, conn.UserID); err == nil {
		senderName = sender.Username
	} else {
		r.logger.Warn("load sender failed",
			zap.Int64("user_id", conn.UserID),
			zap.Error(err),
		)
	}

	if _, err := r.broadcaster.BroadcastToTeam(ctx, msg.TeamID, NewChatEnvelope(stored, senderName)); err != nil {
		r.logger.Error("team broadcast failed",
			zap.Int64("team_id", msg.TeamID),
			zap.Error(err),
		)
	}
}

// handleNotification 定向通知：不落库，直接投递到目标用户全部连接
func (r *Router) handleNotification(conn *Conn, msg NotificationInbound) {
	envelope := &NotificationEnvelope{
		Type:      "notification",
		Content:   msg.Content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := r.broadcaster.SendToUser(msg.TargetUserID, envelope); err != nil {
		r.logger.Error("notification delivery failed",
			zap.Int64("target_user_id", msg.TargetUserID),
			zap.Error(err),
		)
	}
}

func containsMember(members []model.TeamMember, userID int64) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
