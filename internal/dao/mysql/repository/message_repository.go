package repository

import (
	"context"

	"direct_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 保存消息
func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return wrapDBError(err, "create message")
	}
	return nil
}

// FindUndeliveredByRecipient 查找接收者的未送达消息（按发送顺序）
func (r *messageRepository) FindUndeliveredByRecipient(ctx context.Context, recipientId int64) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND delivered = ?", recipientId, false).
		Order("timestamp ASC").Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "find undelivered messages recipient_id=%d", recipientId)
	}
	return messages, nil
}

// FindBetween 按发送者和接收者查找消息（双向）
func (r *messageRepository) FindBetween(ctx context.Context, userOneId, userTwoId int64) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userOneId, userTwoId, userTwoId, userOneId).
		Order("timestamp ASC").Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "find messages user1=%d user2=%d", userOneId, userTwoId)
	}
	return messages, nil
}

// MarkDelivered 标记消息已送达
// 只更新 delivered=false 的行，返回本次调用是否真正改变了状态
func (r *messageRepository) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND delivered = ?", id, false).
		Update("delivered", true)
	if result.Error != nil {
		return false, wrapDBErrorf(result.Error, "mark message delivered id=%d", id)
	}
	return result.RowsAffected == 1, nil
}
