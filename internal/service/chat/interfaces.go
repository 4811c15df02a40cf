package chat

import (
	"context"

	"direct_chat_server/internal/model"
)

// Conn 单个客户端连接的抽象，由传输层（WebSocket）实现
// Send 同步写出一帧文本，返回 nil 即表示推送成功
type Conn interface {
	Send(data []byte) error
	Close(code int, reason string) error
	Active() bool
}

// UserStore 用户名与持久化 ID 的互相解析
// 找不到时返回 errorx.IsNotFound 为 true 的错误
type UserStore interface {
	ResolveID(ctx context.Context, username string) (int64, error)
	ResolveUsername(ctx context.Context, id int64) (string, error)
}

// MessageStore 私聊消息的持久化
type MessageStore interface {
	Save(ctx context.Context, senderId, recipientId int64, content string) (*model.Message, error)
	UndeliveredFor(ctx context.Context, userId int64) ([]*model.Message, error)
	Between(ctx context.Context, a, b int64) ([]*model.Message, error)
	MarkDelivered(ctx context.Context, messageId int64) error
}
