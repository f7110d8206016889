package ws

import "errors"

// 错误定义
var (
	// 连接相关错误
	ErrTooManyConnections = errors.New("ws: too many connections")
	ErrConnectionClosed   = errors.New("ws: connection closed")
	ErrSendQueueFull      = errors.New("ws: send queue full")

	// 握手相关错误
	ErrInvalidUserID    = errors.New("ws: invalid userId parameter")
	ErrInvalidSessionID = errors.New("ws: invalid sessionId parameter")

	// 消息相关错误
	ErrInvalidMessage = errors.New("ws: invalid message format")

	// 配置相关错误
	ErrInvalidConfig = errors.New("ws: invalid config")
)
