// command.go
// 核心职责：解析并执行斜杠命令（/help /users /history /bye）
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"direct_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// HelpText /help 返回的命令列表
const HelpText = "Available commands: /help, /users, /history <user>, /bye"

// historyTimeLayout 历史记录时间戳格式（本地时间，精确到分钟）
const historyTimeLayout = "2006-01-02 15:04"

// CommandProcessor 无状态的命令处理器
type CommandProcessor struct {
	registry *Registry
	users    UserStore
	messages MessageStore
}

// NewCommandProcessor 创建命令处理器
func NewCommandProcessor(registry *Registry, users UserStore, messages MessageStore) *CommandProcessor {
	return &CommandProcessor{registry: registry, users: users, messages: messages}
}

// Handle 执行 text 中的命令并返回需要回复给 user 的事件
func (p *CommandProcessor) Handle(ctx context.Context, user, text string) Event {
	command, arg := splitFirst(strings.TrimSpace(text))

	switch command {
	case "/help":
		return CommandResult{Command: "help", Result: HelpText}
	case "/users":
		return CommandResult{Command: "users", Result: "Online users: " + strings.Join(p.registry.OnlineUsers(), ", ")}
	case "/history":
		if arg == "" {
			return ErrorMessage{Reason: "Usage: /history <username>"}
		}
		return p.history(ctx, user, arg)
	case "/bye":
		return CloseConnection{Text: "Goodbye!"}
	default:
		return ErrorMessage{Reason: "Unknown command: " + command}
	}
}

func (p *CommandProcessor) history(ctx context.Context, user, other string) Event {
	userId, err := p.users.ResolveID(ctx, user)
	if err != nil {
		logResolveError("resolve caller", user, err)
		return ErrorMessage{Reason: "Internal error: user not found"}
	}
	otherId, err := p.users.ResolveID(ctx, other)
	if err != nil {
		logResolveError("resolve history target", other, err)
		return ErrorMessage{Reason: "Unknown user: " + other}
	}

	messages, err := p.messages.Between(ctx, userId, otherId)
	if err != nil {
		zap.L().Error("load history", zap.String("user", user), zap.String("other", other), zap.Error(err))
		return ErrorMessage{Reason: "Failed to load history. Please try again later."}
	}
	if len(messages) == 0 {
		return CommandResult{Command: "history", Result: "No messages with " + other}
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		sender := other
		if m.SenderId == userId {
			sender = user
		}
		ts := time.UnixMilli(m.Timestamp).Local().Format(historyTimeLayout)
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, sender, m.Content))
	}
	return CommandResult{Command: "history", Result: strings.Join(lines, "\n")}
}

// splitFirst 按第一个空白字符切分，返回首个词和剩余部分（已去除首尾空白）
func splitFirst(text string) (string, string) {
	head, rest, _ := cutSpace(text)
	return head, strings.TrimSpace(rest)
}

// cutSpace 在第一个空白字符处切开，空白字符本身（可能是多字节）不属于任何一侧
func cutSpace(text string) (head, rest string, found bool) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, "", false
	}
	_, w := utf8.DecodeRuneInString(text[i:])
	return text[:i], text[i+w:], true
}

// logResolveError 未找到属于正常业务分支，只记 Debug；其他错误记 Error
func logResolveError(msg, username string, err error) {
	if errorx.IsNotFound(err) {
		zap.L().Debug(msg, zap.String("username", username), zap.Error(err))
		return
	}
	zap.L().Error(msg, zap.String("username", username), zap.Error(err))
}
