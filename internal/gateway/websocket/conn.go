// Package websocket 封装 gorilla/websocket 连接，实现 chat.Conn
// 负责写串行化、ping/pong 保活、读超时与单帧大小限制
package websocket

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"direct_chat_server/internal/config"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrClosed 连接已关闭
var ErrClosed = errors.New("websocket connection closed")

// Options 连接参数
type Options struct {
	PingPeriod     time.Duration // ping 间隔
	PongWait       time.Duration // 读超时，每次收到 pong 或消息时顺延
	WriteWait      time.Duration // 单次写超时
	MaxMessageSize int64         // 单帧最大字节数
}

// OptionsFromConfig 由配置构造连接参数
func OptionsFromConfig(conf *config.WebSocketConfig) Options {
	return Options{
		PingPeriod:     time.Duration(conf.PingPeriod) * time.Second,
		PongWait:       time.Duration(conf.PongWait) * time.Second,
		WriteWait:      time.Duration(conf.WriteWait) * time.Second,
		MaxMessageSize: conf.MaxMessageSize,
	}
}

// NewUpgrader 创建 Upgrader
// 鉴权使用 query 中的 token，不依赖 Cookie，因此不校验 Origin
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Conn 单个 WebSocket 连接
// gorilla 的连接只允许一个并发写者，所有写操作由 writeMu 串行化
type Conn struct {
	ws        *websocket.Conn
	opts      Options
	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewConn 包装已升级的连接，并启动 ping 协程
func NewConn(ws *websocket.Conn, opts Options) *Conn {
	c := &Conn{
		ws:   ws,
		opts: opts,
		done: make(chan struct{}),
	}
	if opts.MaxMessageSize > 0 {
		ws.SetReadLimit(opts.MaxMessageSize)
	}
	c.extendReadDeadline()
	ws.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})
	if opts.PingPeriod > 0 {
		go c.keepAlive()
	}
	return c
}

func (c *Conn) extendReadDeadline() {
	if c.opts.PongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	}
}

func (c *Conn) writeDeadline() time.Time {
	if c.opts.WriteWait <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.opts.WriteWait)
}

// keepAlive 定时发送 ping，写失败即退出
func (c *Conn) keepAlive() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, c.writeDeadline())
			c.writeMu.Unlock()
			if err != nil {
				zap.L().Debug("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

// Send 同步写出一帧文本
func (c *Conn) Send(data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(c.writeDeadline()); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close 发送关闭帧后关闭底层连接，重复调用返回 ErrClosed
func (c *Conn) Close(code int, reason string) error {
	err := ErrClosed
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)

		c.writeMu.Lock()
		werr := c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), c.writeDeadline())
		c.writeMu.Unlock()

		cerr := c.ws.Close()
		err = errors.Join(ignoreClosed(werr), cerr)
	})
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// Active 连接是否仍可用
func (c *Conn) Active() bool {
	return !c.closed.Load()
}

// ReadText 阻塞读取下一条文本消息
// 二进制帧被忽略；对端关闭或读取出错时返回 error
func (c *Conn) ReadText() (string, error) {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		c.extendReadDeadline()
		if msgType == websocket.TextMessage {
			return string(data), nil
		}
	}
}

// MarkClosed 读循环退出时调用，释放底层连接
func (c *Conn) MarkClosed() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.ws.Close()
	})
}
