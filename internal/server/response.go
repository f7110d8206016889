package server

import (
	"net/http"

	"questhub/internal/errors"
	"questhub/internal/server/middleware"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`               // 业务状态码
	Data    any    `json:"data"`               // 响应数据
	Message string `json:"message"`            // 响应消息
	TraceID string `json:"trace_id,omitempty"` // 追踪ID（可选）
}

// Success 写出成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, &Response{
		Code:    http.StatusOK,
		Data:    data,
		Message: "success",
		TraceID: c.GetString(middleware.ContextKeyTraceID),
	})
}

// Created 写出创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, &Response{
		Code:    http.StatusCreated,
		Data:    data,
		Message: "success",
		TraceID: c.GetString(middleware.ContextKeyTraceID),
	})
}

// Fail 写出失败响应
// *errors.Error 按其携带的 HTTP 状态码与业务码映射，其余错误一律按服务器错误处理
func Fail(c *gin.Context, err error) {
	e := errors.ErrServer
	var appErr *errors.Error
	if errors.As(err, &appErr) {
		e = appErr
	}
	c.JSON(e.HttpCode, &Response{
		Code:    e.Code,
		Message: e.Message,
		TraceID: c.GetString(middleware.ContextKeyTraceID),
	})
}

// PageResp 分页响应结构
type PageResp struct {
	List  any    `json:"list"`  // 数据列表
	Total uint64 `json:"total"` // 总数
}

// NewPageResp 创建分页响应
func NewPageResp(list any, total uint64) *PageResp {
	if list == nil {
		list = []any{}
	}
	return &PageResp{List: list, Total: total}
}
