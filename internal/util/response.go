package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 通用返回结构里的 data 使用 map
type Response map[string]interface{}

// 业务错误码，和 HTTP 状态码一起返回
const (
	CodeOK            = 0
	CodeInvalidParam  = 40001
	CodeAuth          = 40101
	CodeNotFound      = 40401
	CodeConflict      = 40901
	CodeServerErr     = 50001
	CodeUpstream      = 50201
	CodeNotConfigured = 50301

	// CodePending 会话还在恢复中，前端显示加载状态并重试，不要跳转登录页
	CodePending = 20201
)

// Success 统一成功返回
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error 统一错误返回
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}
