// Package mysql 负责建立数据库连接、自动迁移表结构、初始化 Repository 层
// 生产环境使用 MySQL，本地开发和测试可切换为 SQLite
package mysql

import (
	"fmt"

	"direct_chat_server/internal/config"               // 配置管理
	"direct_chat_server/internal/dao/mysql/repository" // Repository 层
	"direct_chat_server/internal/model"                // 数据模型

	"go.uber.org/zap"                  // 日志库
	mysqldriver "gorm.io/driver/mysql" // GORM MySQL 驱动
	"gorm.io/driver/sqlite"            // GORM SQLite 驱动（mattn/go-sqlite3）
	"gorm.io/gorm"                     // GORM ORM 框架
	gormlogger "gorm.io/gorm/logger"
)

// Init 初始化数据库连接并返回 Repository 层实例
// 执行步骤：
//  1. 根据 Driver 选择 MySQL 或 SQLite
//  2. 使用 GORM 建立数据库连接
//  3. 执行 AutoMigrate 自动迁移表结构
//  4. 创建并返回 Repository 实例
func Init(conf *config.DatabaseConfig) (*repository.Repositories, error) {
	var db *gorm.DB
	var err error
	if conf.Driver == "sqlite" {
		db, err = OpenSqlite(conf.SqlitePath)
	} else {
		var dialector gorm.Dialector
		if dialector, err = newDialector(conf); err == nil {
			db, err = Open(dialector)
		}
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("database connected", zap.String("driver", conf.Driver))
	return repository.NewRepositories(db), nil
}

// Open 打开连接并迁移表结构
// TranslateError 让唯一索引冲突返回 gorm.ErrDuplicatedKey
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// AutoMigrate 只会新增表和字段，不会删除已有字段或数据
	if err := db.AutoMigrate(
		&model.User{},    // 用户表
		&model.Message{}, // 私聊消息表
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// OpenSqlite 打开 SQLite 数据库（测试与本地开发使用）
// SQLite 只允许单写者，连接池限制为 1 个连接
func OpenSqlite(path string) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(path))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func newDialector(conf *config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "mysql":
		// 格式：user:password@tcp(host:port)/database?params
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			conf.User,
			conf.Password,
			conf.Host,
			conf.Port,
			conf.DatabaseName,
		)
		return mysqldriver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}
