// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
package repository

import (
	"context"

	"direct_chat_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUsername 根据用户名查找用户，不存在时返回 CodeNotFound
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// FindById 根据用户 ID 查找用户，不存在时返回 CodeNotFound
	FindById(ctx context.Context, id int64) (*model.User, error)
	// Create 创建新用户，用户名重复时返回 CodeUserExist
	Create(ctx context.Context, user *model.User) error
}

// MessageRepository 私聊消息数据访问接口
// 所有查询结果均按 timestamp 升序（同一毫秒内按 id 升序）
type MessageRepository interface {
	// Create 保存消息
	Create(ctx context.Context, message *model.Message) error
	// FindUndeliveredByRecipient 查找发给指定用户且未送达的消息
	FindUndeliveredByRecipient(ctx context.Context, recipientId int64) ([]model.Message, error)
	// FindBetween 查找两个用户之间的双向消息，参数顺序不影响结果
	FindBetween(ctx context.Context, userOneId, userTwoId int64) ([]model.Message, error)
	// MarkDelivered 将消息标记为已送达，重复调用无副作用
	// changed 为 false 表示消息此前已送达或不存在
	MarkDelivered(ctx context.Context, id int64) (changed bool, err error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db      *gorm.DB          // GORM 数据库实例
	User    UserRepository    // 用户 Repository
	Message MessageRepository // 消息 Repository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		User:    NewUserRepository(db),
		Message: NewMessageRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// fn 返回错误时整个事务回滚
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB 返回底层 GORM 实例（用于关闭连接池）
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
