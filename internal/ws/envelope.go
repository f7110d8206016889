package ws

import (
	"encoding/json"
	"fmt"

	"questhub/internal/model"
)

/*
	出站信封

	所有出站消息均为 JSON 文本帧，通过 type 字段区分。
*/

// ConnectedEnvelope 握手成功后发送一次
type ConnectedEnvelope struct {
	Type   string `json:"type"` // 固定为 "connected"
	UserID int64  `json:"userId"`
}

// NewConnectedEnvelope 创建握手成功信封
func NewConnectedEnvelope(userID int64) *ConnectedEnvelope {
	return &ConnectedEnvelope{Type: "connected", UserID: userID}
}

// ChatPayload 聊天消息载荷：已存储的消息记录加上发送者展示名
// 广播内容与持久化记录完全一致，不做二次推导
type ChatPayload struct {
	model.ChatMessage
	SenderName string `json:"senderName"`
}

// ChatEnvelope 团队聊天广播信封
type ChatEnvelope struct {
	Type    string      `json:"type"` // 固定为 "chat"
	Message ChatPayload `json:"message"`
}

// NewChatEnvelope 创建聊天广播信封
func NewChatEnvelope(stored *model.ChatMessage, senderName string) *ChatEnvelope {
	return &ChatEnvelope{
		Type: "chat",
		Message: ChatPayload{
			ChatMessage: *stored,
			SenderName:  senderName,
		},
	}
}

// NotificationEnvelope 定向通知信封（不落库）
type NotificationEnvelope struct {
	Type      string `json:"type"` // 固定为 "notification"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // ISO8601
}

/*
	入站消息

	入站帧解析为封闭的和类型，路由层对每个分支显式处理；
	未知类型是一个显式的空操作分支（向前兼容）。
*/

// Inbound 入站消息和类型
type Inbound interface {
	isInbound()
}

// ChatInbound 团队聊天消息
type ChatInbound struct {
	TeamID  int64
	Content string
}

// NotificationInbound 定向通知消息
type NotificationInbound struct {
	TargetUserID int64
	Content      string
}

// UnknownInbound 未识别的消息类型（显式忽略）
type UnknownInbound struct {
	Kind string
}

func (ChatInbound) isInbound()         {}
func (NotificationInbound) isInbound() {}
func (UnknownInbound) isInbound()      {}

// inboundFrame 入站帧的原始形态
type inboundFrame struct {
	Type         string `json:"type"`
	TeamID       int64  `json:"teamId"`
	TargetUserID int64  `json:"targetUserId"`
	Content      string `json:"content"`
}

// DecodeInbound 解析一条入站文本帧
// 非 JSON 或缺少必需字段时返回 ErrInvalidMessage
func DecodeInbound(data []byte) (Inbound, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	switch frame.Type {
	case "chat":
		if frame.TeamID <= 0 || frame.Content == "" {
			return nil, fmt.Errorf("%w: chat requires teamId and content", ErrInvalidMessage)
		}
		return ChatInbound{TeamID: frame.TeamID, Content: frame.Content}, nil

	case "notification":
		if frame.TargetUserID <= 0 || frame.Content == "" {
			return nil, fmt.Errorf("%w: notification requires targetUserId and content", ErrInvalidMessage)
		}
		return NotificationInbound{TargetUserID: frame.TargetUserID, Content: frame.Content}, nil

	default:
		return UnknownInbound{Kind: frame.Type}, nil
	}
}
