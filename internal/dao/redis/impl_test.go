package redis

import (
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

// 客户端只在执行命令时才建立连接，Worker Pool 的行为无需真实 Redis
func newOfflineCache(workers, buffer int) *RedisCache {
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), workers, buffer)
}

func TestSubmitTaskRunsBeforeClose(t *testing.T) {
	rc := newOfflineCache(2, 4)
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		rc.SubmitTask(func() { ran.Add(1) })
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := ran.Load(); got != 10 {
		t.Fatalf("ran %d tasks, want 10", got)
	}
}

func TestSubmitTaskAfterCloseIsDropped(t *testing.T) {
	rc := newOfflineCache(1, 1)
	_ = rc.Close()

	var ran atomic.Int32
	rc.SubmitTask(func() { ran.Add(1) })
	if ran.Load() != 0 {
		t.Fatal("task submitted after Close must not run")
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
