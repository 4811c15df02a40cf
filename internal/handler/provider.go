// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	gatewayws "direct_chat_server/internal/gateway/websocket"
	"direct_chat_server/internal/infrastructure/middleware"
	"direct_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Ws       *WsHandler
	Verifier middleware.TokenVerifier // 供 JWT 中间件使用
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, verifier middleware.TokenVerifier, wsOpts gatewayws.Options) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.User),
		User:     NewUserHandler(svc.User, svc.Message, svc.Registry),
		Ws:       NewWsHandler(verifier, svc.Chat, wsOpts),
		Verifier: verifier,
	}
}
