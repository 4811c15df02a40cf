// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库

	"direct_chat_server/pkg/constants"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
	Mode    string `toml:"mode"`    // 运行模式："dev" 或 "release"
}

// DatabaseConfig 数据库连接配置
// Driver 为 "mysql" 时使用 MySQL 相关字段；为 "sqlite" 时使用 SqlitePath
type DatabaseConfig struct {
	Driver       string `toml:"driver"`       // 数据库驱动："mysql" 或 "sqlite"
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
	SqlitePath   string `toml:"sqlitePath"`   // SQLite 文件路径，":memory:" 表示内存库
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`  // 是否启用身份缓存
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
	CacheTTL int    `toml:"cacheTTL"` // 缓存有效期（分钟）
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig Kafka 消息日志配置
type KafkaConfig struct {
	Enabled      bool          `toml:"enabled"`      // 是否启用消息日志
	HostPort     string        `toml:"hostPort"`     // Kafka 服务器地址，如 "localhost:9092"
	JournalTopic string        `toml:"journalTopic"` // 消息日志主题
	Timeout      time.Duration `toml:"timeout"`      // 写超时（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	Issuer            string `toml:"issuer"`            // 签发者
	Audience          string `toml:"audience"`          // 受众
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023
}

// WebSocketConfig WebSocket 连接参数
type WebSocketConfig struct {
	PingPeriod     int   `toml:"pingPeriod"`     // ping 间隔（秒）
	PongWait       int   `toml:"pongWait"`       // 等待 pong 的超时（秒），超时视为连接失效
	WriteWait      int   `toml:"writeWait"`      // 单次写超时（秒）
	MaxMessageSize int64 `toml:"maxMessageSize"` // 单条入站消息最大字节数
}

// SweeperConfig 会话清理任务配置
type SweeperConfig struct {
	Spec string `toml:"spec"` // cron 表达式，如 "@every 1m"
}

// TLSConfig TLS 相关配置
type TLSConfig struct {
	Redirect bool `toml:"redirect"` // 是否将 HTTP 请求重定向到 HTTPS（由 Nginx 终止 TLS 时关闭）
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	DatabaseConfig  `toml:"databaseConfig"`  // 数据库配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // Kafka 配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	WebSocketConfig `toml:"webSocketConfig"` // WebSocket 配置
	SweeperConfig   `toml:"sweeperConfig"`   // 会话清理配置
	TLSConfig       `toml:"tlsConfig"`       // TLS 配置
}

// config 全局配置单例，延迟加载
var config *Config

// searchPaths 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",
}

// Load 从指定路径加载配置文件，并为未设置的字段填充默认值
func Load(path string) (*Config, error) {
	conf := new(Config)
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	conf.applyDefaults()
	return conf, nil
}

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() (*Config, error) {
	for _, path := range searchPaths {
		if conf, err := Load(path); err == nil {
			return conf, nil
		}
	}
	return nil, fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到配置文件时使用默认值
func GetConfig() *Config {
	if config == nil {
		conf, err := LoadConfig()
		if err != nil {
			conf = Default()
		}
		config = conf
	}
	return config
}

// SetConfig 替换全局配置实例（命令行指定配置文件时使用）
func SetConfig(conf *Config) {
	config = conf
}

// Default 返回一份全部使用默认值的配置
func Default() *Config {
	conf := new(Config)
	conf.applyDefaults()
	return conf
}

// applyDefaults 为零值字段填充默认值
func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "direct_chat_server"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8080
	}
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.SqlitePath == "" {
		c.SqlitePath = "chat.db"
	}
	if c.DatabaseConfig.Port == 0 {
		c.DatabaseConfig.Port = 3306
	}
	if c.RedisConfig.Port == 0 {
		c.RedisConfig.Port = 6379
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = constants.CACHE_TTL_MINUTES
	}
	if c.LogPath == "" {
		c.LogPath = "logs"
	}
	if c.JournalTopic == "" {
		c.JournalTopic = "chat_message_journal"
	}
	if c.Timeout == 0 {
		c.Timeout = 5
	}
	if c.Issuer == "" {
		c.Issuer = "direct-chat"
	}
	if c.Audience == "" {
		c.Audience = "chat-users"
	}
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = 60
	}
	if c.PingPeriod == 0 {
		c.PingPeriod = 15
	}
	if c.PongWait == 0 {
		c.PongWait = 30
	}
	if c.WriteWait == 0 {
		c.WriteWait = 10
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = constants.MAX_MESSAGE_SIZE
	}
	if c.Spec == "" {
		c.Spec = constants.DEFAULT_SWEEP_SPEC
	}
}
