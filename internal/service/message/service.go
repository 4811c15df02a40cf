// Package message 实现私聊消息的持久化，并把保存/送达事件写入消息日志
package message

import (
	"context"
	"time"

	"go.uber.org/zap"

	"direct_chat_server/internal/dao/mysql/repository"
	"direct_chat_server/internal/infrastructure/mq"
	"direct_chat_server/internal/model"
	"direct_chat_server/pkg/util/snowflake"
)

// messageService 消息业务逻辑实现
type messageService struct {
	repos   *repository.Repositories
	journal mq.Journal
	now     func() time.Time
}

// NewMessageService 构造函数，journal 为 nil 时使用空实现
func NewMessageService(repos *repository.Repositories, journal mq.Journal) *messageService {
	if journal == nil {
		journal = mq.NopJournal{}
	}
	return &messageService{repos: repos, journal: journal, now: time.Now}
}

// Save 保存一条新消息（未送达）
func (s *messageService) Save(ctx context.Context, senderId, recipientId int64, content string) (*model.Message, error) {
	m := &model.Message{
		ID:          snowflake.GenerateID(),
		SenderId:    senderId,
		RecipientId: recipientId,
		Content:     content,
		Timestamp:   s.now().UnixMilli(),
	}
	if err := s.repos.Message.Create(ctx, m); err != nil {
		return nil, err
	}
	s.journal.Publish(ctx, mq.SavedRecord(m))
	return m, nil
}

// UndeliveredFor 发给 userId 且未送达的消息，按时间升序
func (s *messageService) UndeliveredFor(ctx context.Context, userId int64) ([]*model.Message, error) {
	list, err := s.repos.Message.FindUndeliveredByRecipient(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toPointers(list), nil
}

// Between 两个用户之间的全部消息，按时间升序
func (s *messageService) Between(ctx context.Context, a, b int64) ([]*model.Message, error) {
	list, err := s.repos.Message.FindBetween(ctx, a, b)
	if err != nil {
		return nil, err
	}
	return toPointers(list), nil
}

// MarkDelivered 标记已送达，只有状态真正变化时才写入消息日志
func (s *messageService) MarkDelivered(ctx context.Context, messageId int64) error {
	changed, err := s.repos.Message.MarkDelivered(ctx, messageId)
	if err != nil {
		return err
	}
	if changed {
		s.journal.Publish(ctx, mq.DeliveredRecord(messageId, s.now()))
	}
	return nil
}

// HistoryLine 对外（HTTP）返回的一条历史记录
type HistoryLine struct {
	Id        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Delivered bool   `json:"delivered"`
}

// History 以用户名形式返回 user 与 other 的会话记录
func (s *messageService) History(ctx context.Context, user string, userId int64, other string, otherId int64) ([]HistoryLine, error) {
	list, err := s.repos.Message.FindBetween(ctx, userId, otherId)
	if err != nil {
		zap.L().Error("load history", zap.String("user", user), zap.String("other", other), zap.Error(err))
		return nil, err
	}
	lines := make([]HistoryLine, 0, len(list))
	for _, m := range list {
		line := HistoryLine{
			Id:        snowflake.Format(m.ID),
			Sender:    other,
			Recipient: user,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Delivered: m.Delivered,
		}
		if m.SenderId == userId {
			line.Sender, line.Recipient = user, other
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func toPointers(list []model.Message) []*model.Message {
	out := make([]*model.Message, 0, len(list))
	for i := range list {
		out = append(out, &list[i])
	}
	return out
}
