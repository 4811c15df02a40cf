package handler

import (
	"errors"
	"net/http"

	"direct_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrorRespond 统一错误响应结构体
type ErrorRespond struct {
	Error   string            `json:"error"`             // 提示信息
	Details map[string]string `json:"details,omitempty"` // 参数校验失败时的字段说明
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// HandleError 通用错误处理方法
// errorx.CodeError 按错误码映射 HTTP 状态码；系统错误统一返回 500
// 使用示例：
//
//	if err := svc.DoSomething(); err != nil {
//	    HandleError(c, err)
//	    return
//	}
func HandleError(c *gin.Context, err error) {
	// 1. 业务错误：直接返回携带的消息
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		status := errorx.HTTPStatus(codeErr)
		if status >= http.StatusInternalServerError {
			zap.L().Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Int("code", codeErr.Code),
				zap.Error(err),
			)
		}
		c.JSON(status, ErrorRespond{Error: codeErr.Msg})
		return
	}

	// 2. 系统错误或未知错误：记录日志并返回服务繁忙
	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorRespond{Error: errorx.ErrServerBusy.Msg})
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
// 一律返回 400
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		// 翻译后去除结构体名前缀
		c.JSON(http.StatusBadRequest, ErrorRespond{
			Error:   errorx.ErrInvalidParam.Msg,
			Details: RemoveTopStruct(validationErrs.Translate(Trans)),
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Debug("param bind error", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorRespond{Error: errorx.ErrInvalidParam.Msg})
}
