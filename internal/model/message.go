// Package model 定义数据库实体模型
// 本文件定义私聊消息模型
package model

// Message 私聊消息，对应数据库 messages 表
// Delivered 只会从 false 变为 true，不会回退
type Message struct {
	// ID 消息雪花 ID，由 service 层生成
	ID int64 `gorm:"column:id;primaryKey;autoIncrement:false;comment:消息雪花ID"`

	// SenderId 发送者用户 ID
	SenderId int64 `gorm:"column:sender_id;index:idx_pair;not null;comment:发送者id"`

	// RecipientId 接收者用户 ID
	// idx_recipient_delivered 用于上线时查询未送达消息
	RecipientId int64 `gorm:"column:recipient_id;index:idx_pair;index:idx_recipient_delivered;not null;comment:接收者id"`

	// Content 消息文本
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// Timestamp 发送时间（毫秒时间戳）
	Timestamp int64 `gorm:"column:timestamp;index;not null;comment:发送时间毫秒"`

	// Delivered 是否已推送到接收者的在线连接
	Delivered bool `gorm:"column:delivered;index:idx_recipient_delivered;not null;default:false;comment:是否已送达"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}
