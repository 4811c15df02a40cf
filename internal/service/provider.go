// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"time"

	"direct_chat_server/internal/dao/mysql/repository"
	myredis "direct_chat_server/internal/dao/redis"
	"direct_chat_server/internal/infrastructure/mq"
	"direct_chat_server/internal/service/chat"
	"direct_chat_server/internal/service/message"
	"direct_chat_server/internal/service/user"
)

// Dependencies Service 层需要的外部依赖
type Dependencies struct {
	Repos    *repository.Repositories
	Tokens   user.TokenIssuer
	Cache    myredis.AsyncCacheService // 可为 nil
	CacheTTL time.Duration
	Journal  mq.Journal // 可为 nil
}

// Services 聚合所有 Service 实例
type Services struct {
	User     UserService    // 用户 Service
	Message  MessageService // 消息 Service
	Registry *chat.Registry // 在线会话注册表
	Chat     *chat.Router   // 消息路由
}

// NewServices 创建并注入所有 Service 实例
// 注册表在此创建，由 Router、命令处理器和 Handler 共享
func NewServices(deps Dependencies) *Services {
	userSvc := user.NewUserService(deps.Repos, deps.Tokens, deps.Cache, deps.CacheTTL)
	messageSvc := message.NewMessageService(deps.Repos, deps.Journal)

	registry := chat.NewRegistry()
	commands := chat.NewCommandProcessor(registry, userSvc, messageSvc)

	return &Services{
		User:     userSvc,
		Message:  messageSvc,
		Registry: registry,
		Chat:     chat.NewRouter(registry, userSvc, messageSvc, commands),
	}
}
