// router.go
// 核心职责：消息路由
// 连接建立后注册会话、补发离线消息；之后把每条入站文本分派给命令处理或私聊投递
package chat

import (
	"context"
	"errors"
	"strings"

	"direct_chat_server/internal/model"
	"direct_chat_server/pkg/errorx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrIdentityMissing 已认证的用户在用户库中不存在，连接无法继续
var ErrIdentityMissing = errors.New("authenticated user has no identity record")

// 用户可见的提示文本
const (
	msgUnrecognized     = "Unrecognized input"
	msgInvalidFormat    = "Invalid message format. Use '@username message'"
	msgEmptyMessage     = "Message must not be empty"
	msgSaveFailed       = "Failed to save message. Please try again later."
	msgUserNotFound     = "Internal error: user not found"
	msgReconnect        = "Internal error: user not found. Please try to reconnect."
	userLeftCloseReason = "User left"
)

// Router 消息路由器
type Router struct {
	registry *Registry
	users    UserStore
	messages MessageStore
	commands *CommandProcessor
}

// NewRouter 创建消息路由器
func NewRouter(registry *Registry, users UserStore, messages MessageStore, commands *CommandProcessor) *Router {
	return &Router{
		registry: registry,
		users:    users,
		messages: messages,
		commands: commands,
	}
}

// HandleConnection 新连接认证通过后调用
// 注册会话、发送欢迎语，然后按时间顺序补发离线消息
// 返回 ErrIdentityMissing 时会话已被注销，调用方应结束该连接
func (r *Router) HandleConnection(ctx context.Context, user string, conn Conn) error {
	r.registry.Register(user, conn)
	r.notify(user, SystemMessage{Text: "Welcome, " + user + "! You are now connected."})

	userId, err := r.users.ResolveID(ctx, user)
	if err != nil {
		logResolveError("resolve connecting user", user, err)
		r.notify(user, ErrorMessage{Reason: msgReconnect})
		r.registry.UnregisterConn(user, conn)
		return ErrIdentityMissing
	}

	r.deliverBacklog(ctx, user, userId)
	return nil
}

// deliverBacklog 补发离线消息，推送成功的标记为已送达
// 推送失败即停止，剩余消息留到下次连接，保证送达顺序
func (r *Router) deliverBacklog(ctx context.Context, user string, userId int64) {
	pending, err := r.messages.UndeliveredFor(ctx, userId)
	if err != nil {
		zap.L().Error("load undelivered messages", zap.String("user", user), zap.Error(err))
		return
	}

	delivered := 0
	for _, m := range pending {
		sender, err := r.users.ResolveUsername(ctx, m.SenderId)
		if err != nil {
			zap.L().Warn("resolve backlog sender", zap.Int64("messageId", m.ID), zap.Int64("senderId", m.SenderId), zap.Error(err))
			continue
		}
		if err := r.registry.SendTo(user, UserMessage{Sender: sender, Text: m.Content}); err != nil {
			zap.L().Info("backlog delivery interrupted", zap.String("user", user), zap.Int64("messageId", m.ID), zap.Error(err))
			break
		}
		r.markDelivered(ctx, m)
		delivered++
	}
	if len(pending) > 0 {
		zap.L().Info("backlog delivered", zap.String("user", user), zap.Int("pending", len(pending)), zap.Int("delivered", delivered))
	}
}

// HandleMessage 处理一条入站文本
func (r *Router) HandleMessage(ctx context.Context, user, text string) {
	switch {
	case strings.HasPrefix(text, "/"):
		r.handleCommand(ctx, user, text)
	case strings.HasPrefix(text, "@"):
		r.handleDirectMessage(ctx, user, text)
	default:
		r.notify(user, ErrorMessage{Reason: msgUnrecognized})
	}
}

func (r *Router) handleCommand(ctx context.Context, user, text string) {
	event := r.commands.Handle(ctx, user, text)
	r.notify(user, event)

	if _, ok := event.(CloseConnection); ok {
		if conn, ok := r.registry.GetSession(user); ok {
			if err := conn.Close(websocket.CloseNormalClosure, userLeftCloseReason); err != nil {
				zap.L().Debug("close on /bye", zap.String("user", user), zap.Error(err))
			}
		}
	}
}

func (r *Router) handleDirectMessage(ctx context.Context, user, text string) {
	recipient, body, ok := cutSpace(strings.TrimPrefix(text, "@"))
	if !ok || recipient == "" {
		r.notify(user, ErrorMessage{Reason: msgInvalidFormat})
		return
	}
	if strings.TrimSpace(body) == "" {
		r.notify(user, ErrorMessage{Reason: msgEmptyMessage})
		return
	}

	senderId, err := r.users.ResolveID(ctx, user)
	if err != nil {
		if !errorx.IsNotFound(err) {
			zap.L().Error("resolve sender", zap.String("user", user), zap.Error(err))
			r.notify(user, ErrorMessage{Reason: msgSaveFailed})
			return
		}
		// 已认证用户没有身份记录，属于内部不一致，直接结束会话
		zap.L().Error("sender has no identity record", zap.String("user", user))
		r.notify(user, ErrorMessage{Reason: msgUserNotFound})
		r.registry.Unregister(user)
		return
	}
	recipientId, err := r.users.ResolveID(ctx, recipient)
	if err != nil {
		if errorx.IsNotFound(err) {
			r.notify(user, ErrorMessage{Reason: "Unknown user: " + recipient})
			return
		}
		zap.L().Error("resolve recipient", zap.String("recipient", recipient), zap.Error(err))
		r.notify(user, ErrorMessage{Reason: msgSaveFailed})
		return
	}

	// 无论对方是否在线都先落库，离线时即成为待补发消息
	m, err := r.messages.Save(ctx, senderId, recipientId, body)
	if err != nil {
		zap.L().Error("save direct message", zap.String("sender", user), zap.String("recipient", recipient), zap.Error(err))
		r.notify(user, ErrorMessage{Reason: msgSaveFailed})
		return
	}

	if err := r.registry.SendTo(recipient, UserMessage{Sender: user, Text: body}); err != nil {
		if !errors.Is(err, ErrUserOffline) {
			zap.L().Warn("push direct message", zap.String("recipient", recipient), zap.Int64("messageId", m.ID), zap.Error(err))
		}
		r.notify(user, CommandResult{Command: "queued", Result: "to " + recipient + " (offline — will be delivered later)"})
		return
	}
	r.markDelivered(ctx, m)
	r.notify(user, CommandResult{Command: "sent", Result: "to " + recipient})
}

func (r *Router) markDelivered(ctx context.Context, m *model.Message) {
	if err := r.messages.MarkDelivered(ctx, m.ID); err != nil {
		// 标记失败时消息会在下次连接时重发（至少一次）
		zap.L().Error("mark message delivered", zap.Int64("messageId", m.ID), zap.Error(err))
	}
}

// notify 给 user 推送事件，失败只记录日志
func (r *Router) notify(user string, e Event) {
	if err := r.registry.SendTo(user, e); err != nil {
		zap.L().Debug("notify user", zap.String("user", user), zap.Error(err))
	}
}

// CleanUp 连接结束时调用，每个连接恰好一次
// 只移除仍属于 conn 的会话，被顶替的旧连接不会影响新连接
func (r *Router) CleanUp(user string, conn Conn) {
	if r.registry.UnregisterConn(user, conn) {
		zap.L().Info("session closed", zap.String("user", user))
	}
}
