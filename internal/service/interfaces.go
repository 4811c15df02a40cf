// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
package service

import (
	"context"

	"direct_chat_server/internal/service/chat"
	"direct_chat_server/internal/service/message"
)

// UserService 用户业务接口
// 处理注册、登录，同时作为聊天核心的用户库
type UserService interface {
	// Register 注册并返回令牌
	Register(ctx context.Context, username, password string) (string, error)
	// Login 密码登录并返回令牌
	Login(ctx context.Context, username, password string) (string, error)

	chat.UserStore
}

// MessageService 消息业务接口
type MessageService interface {
	chat.MessageStore

	// History 以用户名形式返回两个用户之间的会话记录
	History(ctx context.Context, user string, userId int64, other string, otherId int64) ([]message.HistoryLine, error)
}
