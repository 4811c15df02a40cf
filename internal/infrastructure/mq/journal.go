// Package mq 提供消息日志（journal）的发布能力
// 每条私聊消息的保存与送达都会以 JSON 记录写入 Kafka，供下游审计/统计消费
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"direct_chat_server/internal/config"
	"direct_chat_server/internal/model"
	"direct_chat_server/pkg/errorx"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 日志记录类型
const (
	EventMessageSaved     = "message_saved"
	EventMessageDelivered = "message_delivered"
)

// Record 写入 Kafka 的一条日志记录
type Record struct {
	Event       string `json:"event"`
	MessageId   int64  `json:"message_id"`
	SenderId    int64  `json:"sender_id,omitempty"`
	RecipientId int64  `json:"recipient_id,omitempty"`
	Content     string `json:"content,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// SavedRecord 构造消息保存记录
func SavedRecord(m *model.Message) Record {
	return Record{
		Event:       EventMessageSaved,
		MessageId:   m.ID,
		SenderId:    m.SenderId,
		RecipientId: m.RecipientId,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
	}
}

// DeliveredRecord 构造消息送达记录
func DeliveredRecord(messageId int64, at time.Time) Record {
	return Record{
		Event:     EventMessageDelivered,
		MessageId: messageId,
		Timestamp: at.UnixMilli(),
	}
}

// Journal 消息日志发布接口
// Publish 为尽力而为，失败只记录日志，不影响聊天主流程
type Journal interface {
	Publish(ctx context.Context, record Record)
	Close() error
}

// messageWriter 抽象 kafka.Writer，便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaJournal 基于 kafka-go Writer 的 Journal 实现
type KafkaJournal struct {
	writer messageWriter
}

// NewKafkaJournal 根据配置创建异步 Kafka Writer
// Async 模式下 WriteMessages 立即返回，写入错误通过 Completion 回调记录
func NewKafkaJournal(conf *config.KafkaConfig) *KafkaJournal {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(conf.HostPort),
		Topic:                  conf.JournalTopic,
		Balancer:               &kafka.Hash{}, // 同一 key（消息 ID）进入同一分区
		WriteTimeout:           conf.Timeout * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				zap.L().Error("kafka journal write failed", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return newKafkaJournal(writer)
}

func newKafkaJournal(writer messageWriter) *KafkaJournal {
	return &KafkaJournal{writer: writer}
}

// Publish 发布一条日志记录
func (k *KafkaJournal) Publish(ctx context.Context, record Record) {
	value, err := json.Marshal(record)
	if err != nil {
		zap.L().Error("marshal journal record", zap.Error(err))
		return
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(record.MessageId, 10)),
		Value: value,
	}); err != nil {
		zap.L().Error("publish journal record",
			zap.String("event", record.Event),
			zap.Int64("messageId", record.MessageId),
			zap.Error(errorx.Wrap(err, errorx.CodeMQError, "kafka write")))
	}
}

// Close 刷新缓冲并关闭 Writer
func (k *KafkaJournal) Close() error {
	return k.writer.Close()
}

// NopJournal Kafka 未启用时使用的空实现
type NopJournal struct{}

// Publish 不做任何事
func (NopJournal) Publish(context.Context, Record) {}

// Close 不做任何事
func (NopJournal) Close() error { return nil }

var (
	_ Journal = (*KafkaJournal)(nil)
	_ Journal = NopJournal{}
)
