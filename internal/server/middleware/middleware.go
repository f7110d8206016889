// Package middleware 提供 gin 中间件：请求日志、跨域、限流与身份认证
package middleware

// gin 上下文键
const (
	// ContextKeyUserID 认证通过后注入的用户 ID（int64）
	ContextKeyUserID = "auth_user_id"
	// ContextKeyTraceID 请求追踪 ID
	ContextKeyTraceID = "trace_id"
)
