// Package handler 提供 HTTP 请求处理器
// 本文件处理注册和登录
package handler

import (
	"net/http"

	"direct_chat_server/internal/dto/request"
	"direct_chat_server/internal/dto/respond"
	"direct_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	userSvc service.UserService
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(userSvc service.UserService) *AuthHandler {
	return &AuthHandler{userSvc: userSvc}
}

// Register 用户注册
// POST /register
// 请求体: request.CredentialsRequest
// 响应: 201 respond.TokenRespond；400 参数为空；409 用户名已存在
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	token, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusCreated, respond.TokenRespond{Token: token})
}

// Login 用户登录
// POST /login
// 请求体: request.CredentialsRequest
// 响应: 200 respond.TokenRespond；400 参数为空；401 用户名或密码错误
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	token, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, http.StatusOK, respond.TokenRespond{Token: token})
}
