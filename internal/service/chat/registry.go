// registry.go
// 核心职责：在线会话注册表
// 每个用户名最多对应一个活跃连接，新连接会顶替并关闭旧连接
package chat

import (
	"errors"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrUserOffline 目标用户没有活跃连接
var ErrUserOffline = errors.New("user offline")

// replacedReason 旧连接被同名新连接顶替时的关闭原因
const replacedReason = "Replaced by new connection"

// Registry 用户名 -> 连接 的内存映射
// 所有写操作（注册、注销、顶替时关闭旧连接）由 mu 串行化；
// 读操作直接读 sessions，不加锁，也从不在持锁期间推送消息
type Registry struct {
	mu       sync.Mutex
	sessions sync.Map // map[string]Conn
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// Register 安装 user 的新连接
// 若已有旧连接，先尽力关闭它（关闭失败只记录日志）
func (r *Registry) Register(user string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions.Load(user); ok {
		if prev := old.(Conn); prev != conn && prev.Active() {
			if err := prev.Close(websocket.CloseNormalClosure, replacedReason); err != nil {
				zap.L().Debug("close replaced session", zap.String("user", user), zap.Error(err))
			}
		}
	}
	r.sessions.Store(user, conn)
	zap.L().Info("session registered", zap.String("user", user))
}

// Unregister 移除并关闭 user 的会话，不存在时什么也不做
func (r *Registry) Unregister(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.sessions.LoadAndDelete(user)
	if !ok {
		return
	}
	r.closeQuietly(user, old.(Conn))
}

// UnregisterConn 仅当 user 当前的会话仍是 conn 时才移除
// 被顶替的旧连接在退出时调用它，不会误删新连接
// 返回是否真正移除了会话
func (r *Registry) UnregisterConn(user string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sessions.CompareAndDelete(user, conn) {
		return false
	}
	r.closeQuietly(user, conn)
	return true
}

func (r *Registry) closeQuietly(user string, conn Conn) {
	if !conn.Active() {
		return
	}
	if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
		zap.L().Debug("close session", zap.String("user", user), zap.Error(err))
	}
}

// IsOnline 用户是否有活跃连接
func (r *Registry) IsOnline(user string) bool {
	conn, ok := r.GetSession(user)
	return ok && conn.Active()
}

// OnlineUsers 返回当前活跃用户名快照（按字典序）
// 已失效但尚未清理的会话不计入
func (r *Registry) OnlineUsers() []string {
	users := make([]string, 0)
	r.sessions.Range(func(key, value any) bool {
		if value.(Conn).Active() {
			users = append(users, key.(string))
		}
		return true
	})
	sort.Strings(users)
	return users
}

// SendTo 编码并推送事件给 user 的当前连接
// 用户不在线返回 ErrUserOffline；返回 nil 表示已成功写出
func (r *Registry) SendTo(user string, e Event) error {
	conn, ok := r.GetSession(user)
	if !ok || !conn.Active() {
		return ErrUserOffline
	}
	data, err := Encode(e)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

// GetSession 原始查找，不检查连接是否活跃
func (r *Registry) GetSession(user string) (Conn, bool) {
	v, ok := r.sessions.Load(user)
	if !ok {
		return nil, false
	}
	return v.(Conn), true
}

// Prune 清理已失效的会话，返回清理数量
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	r.sessions.Range(func(key, value any) bool {
		if !value.(Conn).Active() {
			if r.sessions.CompareAndDelete(key, value) {
				pruned++
			}
		}
		return true
	})
	return pruned
}
