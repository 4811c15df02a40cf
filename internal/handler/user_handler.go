// Package handler 提供 HTTP 请求处理器
// 本文件处理在线状态与历史记录查询
package handler

import (
	"net/http"

	"direct_chat_server/internal/dto/respond"
	"direct_chat_server/internal/infrastructure/middleware"
	"direct_chat_server/internal/service"
	"direct_chat_server/internal/service/chat"
	"direct_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户查询处理器（需认证）
type UserHandler struct {
	userSvc    service.UserService
	messageSvc service.MessageService
	registry   *chat.Registry
}

// NewUserHandler 创建用户查询处理器实例
func NewUserHandler(userSvc service.UserService, messageSvc service.MessageService, registry *chat.Registry) *UserHandler {
	return &UserHandler{userSvc: userSvc, messageSvc: messageSvc, registry: registry}
}

// OnlineUsers 在线用户列表
// GET /api/users/online
func (h *UserHandler) OnlineUsers(c *gin.Context) {
	users := h.registry.OnlineUsers()
	HandleSuccess(c, http.StatusOK, respond.OnlineUsersRespond{Users: users, Count: len(users)})
}

// History 当前用户与 :username 的会话记录
// GET /api/history/:username
func (h *UserHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	other := c.Param("username")
	ctx := c.Request.Context()

	userId, err := h.userSvc.ResolveID(ctx, user)
	if err != nil {
		if errorx.IsNotFound(err) {
			zap.L().Warn("token user has no identity record", zap.String("user", user))
			HandleError(c, errorx.New(errorx.CodeUnauthorized, "Internal error: user not found"))
			return
		}
		HandleError(c, err)
		return
	}
	otherId, err := h.userSvc.ResolveID(ctx, other)
	if err != nil {
		if errorx.IsNotFound(err) {
			HandleError(c, errorx.New(errorx.CodeUserNotExist, "Unknown user: "+other))
			return
		}
		HandleError(c, err)
		return
	}

	lines, err := h.messageSvc.History(ctx, user, userId, other, otherId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, respond.HistoryRespond{With: other, Messages: lines})
}
