// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"direct_chat_server/internal/handler"
	"direct_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器，持有注入的 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.registerAuthRoutes(r)
	rt.registerWebSocketRoutes(r)
	rt.registerAPIRoutes(r.Group("/api", middleware.JWTAuth(rt.handlers.Verifier)))
}

// registerAuthRoutes 公开接口（无需认证）
func (rt *Router) registerAuthRoutes(r *gin.Engine) {
	r.POST("/register", rt.handlers.Auth.Register)
	r.POST("/login", rt.handlers.Auth.Login)
}

// registerWebSocketRoutes 聊天连接入口
// 请求示例: ws://host:port/chat?token=xxx
// token 在升级之后校验，失败以关闭帧告知客户端，因此不挂 JWT 中间件
func (rt *Router) registerWebSocketRoutes(r *gin.Engine) {
	r.GET("/chat", rt.handlers.Ws.Chat)
}

// registerAPIRoutes 需要 Bearer Token 的查询接口
func (rt *Router) registerAPIRoutes(api *gin.RouterGroup) {
	api.GET("/users/online", rt.handlers.User.OnlineUsers)
	api.GET("/history/:username", rt.handlers.User.History)
}
