// sweeper.go
// 核心职责：定时清理已失效但仍留在注册表中的会话，并记录在线人数
package chat

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper 基于 cron 的会话清理任务
type Sweeper struct {
	registry *Registry
	cron     *cron.Cron
}

// NewSweeper 按 spec（标准 cron 表达式或 "@every 1m" 之类的描述符）注册清理任务
func NewSweeper(registry *Registry, spec string) (*Sweeper, error) {
	s := &Sweeper{
		registry: registry,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return nil, fmt.Errorf("schedule session sweeper %q: %w", spec, err)
	}
	return s, nil
}

// Sweep 执行一次清理
func (s *Sweeper) Sweep() {
	pruned := s.registry.Prune()
	online := len(s.registry.OnlineUsers())
	if pruned > 0 {
		zap.L().Info("pruned inactive sessions", zap.Int("pruned", pruned), zap.Int("online", online))
		return
	}
	zap.L().Debug("session sweep", zap.Int("online", online))
}

// Start 后台启动调度
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的清理结束
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
