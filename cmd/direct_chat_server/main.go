package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"direct_chat_server/internal/config"
	dao "direct_chat_server/internal/dao/mysql"
	myredis "direct_chat_server/internal/dao/redis"
	gatewayws "direct_chat_server/internal/gateway/websocket"
	"direct_chat_server/internal/handler"
	"direct_chat_server/internal/https_server"
	"direct_chat_server/internal/infrastructure/logger"
	"direct_chat_server/internal/infrastructure/mq"
	"direct_chat_server/internal/service"
	"direct_chat_server/internal/service/chat"
	"direct_chat_server/pkg/util/jwt"
	"direct_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: search configs/)")
	flag.Parse()

	// 1. 加载配置
	conf := config.GetConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		config.SetConfig(loaded)
		conf = loaded
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功", zap.String("app", conf.AppName), zap.String("mode", conf.Mode))

	// 3. 雪花算法节点
	snowflake.Init(conf.MachineID)

	// 4. 初始化数据库
	repos, err := dao.Init(&conf.DatabaseConfig)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.Driver))

	// 5. 初始化 Redis（可选）
	var cache myredis.AsyncCacheService
	var redisCache *myredis.RedisCache
	if conf.RedisConfig.Enabled {
		redisCache, err = myredis.Init(&conf.RedisConfig)
		if err != nil {
			zap.L().Fatal("Redis 初始化失败", zap.Error(err))
		}
		cache = redisCache
		zap.L().Info("Redis 初始化成功")
	}

	// 6. 初始化 Kafka 消息日志（可选）
	var journal mq.Journal = mq.NopJournal{}
	if conf.KafkaConfig.Enabled {
		journal = mq.NewKafkaJournal(&conf.KafkaConfig)
		zap.L().Info("Kafka 消息日志已启用", zap.String("topic", conf.JournalTopic))
	}

	// 7. 初始化 JWT
	secret := conf.Secret
	if secret == "" {
		secret = randomSecret()
		zap.L().Warn("jwtConfig.secret 未配置，使用随机密钥，重启后已签发的 Token 将失效")
	}
	tokens := jwt.NewManager(jwt.Config{
		Secret:      secret,
		Issuer:      conf.Issuer,
		Audience:    conf.Audience,
		TokenExpiry: time.Duration(conf.AccessTokenExpiry) * time.Minute,
	})

	// 8. 初始化 Service 层 (依赖注入)
	svc := service.NewServices(service.Dependencies{
		Repos:    repos,
		Tokens:   tokens,
		Cache:    cache,
		CacheTTL: time.Duration(conf.CacheTTL) * time.Minute,
		Journal:  journal,
	})
	zap.L().Info("Service 层初始化成功")

	// 9. 会话清理任务
	sweeper, err := chat.NewSweeper(svc.Registry, conf.SweeperConfig.Spec)
	if err != nil {
		zap.L().Fatal("会话清理任务初始化失败", zap.Error(err))
	}
	sweeper.Start()

	// 10. 初始化 HTTP 服务器
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("validator 翻译器初始化失败", zap.Error(err))
	}
	handlers := handler.NewHandlers(svc, tokens, gatewayws.OptionsFromConfig(&conf.WebSocketConfig))
	engine := https_server.Init(conf, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("关闭服务器...")

	// Shutdown 不会等待已劫持的 WebSocket 连接，这些连接随进程退出关闭
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("http server shutdown", zap.Error(err))
	}
	sweeper.Stop()
	if err := journal.Close(); err != nil {
		zap.L().Error("close journal", zap.Error(err))
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			zap.L().Error("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := repos.DB().DB(); err == nil {
		_ = sqlDB.Close()
	}

	zap.L().Info("服务器已关闭")
}

// randomSecret 生成 32 字节随机密钥
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		zap.L().Fatal("generate jwt secret", zap.Error(err))
	}
	return hex.EncodeToString(buf)
}
