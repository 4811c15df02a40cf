// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 聊天连接
package handler

import (
	"context"
	"errors"
	"strings"

	gatewayws "direct_chat_server/internal/gateway/websocket"
	"direct_chat_server/internal/infrastructure/middleware"
	"direct_chat_server/internal/service/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	verifier middleware.TokenVerifier
	router   *chat.Router
	upgrader *websocket.Upgrader
	opts     gatewayws.Options
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(verifier middleware.TokenVerifier, router *chat.Router, opts gatewayws.Options) *WsHandler {
	return &WsHandler{
		verifier: verifier,
		router:   router,
		upgrader: gatewayws.NewUpgrader(),
		opts:     opts,
	}
}

// Chat 建立聊天连接
// GET /chat?token=xxx（也接受 Authorization: Bearer xxx）
// 先升级再鉴权，鉴权失败以 1008 关闭并带上原因
func (h *WsHandler) Chat(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时已写出 HTTP 错误响应
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	token := tokenFrom(c)
	if token == "" {
		h.reject(ws, "Missing token")
		return
	}
	user, err := h.verifier.Verify(token)
	if err != nil {
		zap.L().Info("websocket token rejected", zap.Error(err))
		h.reject(ws, "Invalid token")
		return
	}

	h.serve(c.Request.Context(), user, gatewayws.NewConn(ws, h.opts))
}

func tokenFrom(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (h *WsHandler) reject(ws *websocket.Conn, reason string) {
	conn := gatewayws.NewConn(ws, gatewayws.Options{WriteWait: h.opts.WriteWait})
	if err := conn.Close(websocket.ClosePolicyViolation, reason); err != nil {
		zap.L().Debug("close rejected websocket", zap.Error(err))
	}
}

// serve 连接主循环，返回前保证 CleanUp 恰好执行一次
func (h *WsHandler) serve(ctx context.Context, user string, conn *gatewayws.Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("websocket session panic", zap.String("user", user), zap.Any("recover", rec))
		}
		h.router.CleanUp(user, conn)
		conn.MarkClosed()
	}()

	if err := h.router.HandleConnection(ctx, user, conn); err != nil {
		zap.L().Warn("websocket session aborted", zap.String("user", user), zap.Error(err))
		return
	}

	for {
		text, err := conn.ReadText()
		if err != nil {
			logReadError(user, err)
			return
		}
		h.router.HandleMessage(ctx, user, text)
	}
}

func logReadError(user string, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, websocket.ErrCloseSent) {
		zap.L().Debug("websocket closed", zap.String("user", user), zap.Error(err))
		return
	}
	zap.L().Info("websocket read ended", zap.String("user", user), zap.Error(err))
}
