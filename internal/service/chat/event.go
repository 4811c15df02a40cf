// Package chat 实现了聊天系统的核心服务层
// event.go
// 核心职责：定义下发给客户端的事件类型及其 JSON 编码
package chat

import (
	"encoding/json"
	"fmt"
)

// 事件类型标识，写入 JSON 的 "type" 字段
const (
	TypeUserMessage     = "user_message"
	TypeSystemMessage   = "system_message"
	TypeErrorMessage    = "error_message"
	TypeCommandResult   = "command_result"
	TypeCloseConnection = "close_connection"
)

// Event 下发事件，只能是本包定义的五种类型之一
type Event interface {
	eventType() string
}

// UserMessage 其他用户发来的私聊消息
type UserMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// SystemMessage 系统通知，如欢迎语
type SystemMessage struct {
	Text string `json:"text"`
}

// ErrorMessage 错误提示，连接不会因此断开（除非是内部一致性错误）
type ErrorMessage struct {
	Reason string `json:"reason"`
}

// CommandResult 命令或私聊发送的执行结果
type CommandResult struct {
	Command string `json:"command"`
	Result  string `json:"result"`
}

// CloseConnection 通知客户端即将关闭连接
type CloseConnection struct {
	Text string `json:"text"`
}

func (UserMessage) eventType() string     { return TypeUserMessage }
func (SystemMessage) eventType() string   { return TypeSystemMessage }
func (ErrorMessage) eventType() string    { return TypeErrorMessage }
func (CommandResult) eventType() string   { return TypeCommandResult }
func (CloseConnection) eventType() string { return TypeCloseConnection }

// Encode 将事件编码为带 "type" 字段的扁平 JSON 对象
func Encode(e Event) ([]byte, error) {
	switch v := e.(type) {
	case UserMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			UserMessage
		}{v.eventType(), v})
	case SystemMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			SystemMessage
		}{v.eventType(), v})
	case ErrorMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			ErrorMessage
		}{v.eventType(), v})
	case CommandResult:
		return json.Marshal(struct {
			Type string `json:"type"`
			CommandResult
		}{v.eventType(), v})
	case CloseConnection:
		return json.Marshal(struct {
			Type string `json:"type"`
			CloseConnection
		}{v.eventType(), v})
	default:
		return nil, fmt.Errorf("unknown event %T", e)
	}
}

// Decode 解析 Encode 的输出，是 Encode 的逆操作
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var (
		e   Event
		err error
	)
	switch head.Type {
	case TypeUserMessage:
		var v UserMessage
		err = json.Unmarshal(data, &v)
		e = v
	case TypeSystemMessage:
		var v SystemMessage
		err = json.Unmarshal(data, &v)
		e = v
	case TypeErrorMessage:
		var v ErrorMessage
		err = json.Unmarshal(data, &v)
		e = v
	case TypeCommandResult:
		var v CommandResult
		err = json.Unmarshal(data, &v)
		e = v
	case TypeCloseConnection:
		var v CloseConnection
		err = json.Unmarshal(data, &v)
		e = v
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
