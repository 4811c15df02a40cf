package respond

import "direct_chat_server/internal/service/message"

// HistoryRespond 与某个用户的会话记录
type HistoryRespond struct {
	With     string                `json:"with"`
	Messages []message.HistoryLine `json:"messages"`
}
