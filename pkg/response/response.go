// Package response 统一的 JSON 响应格式
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/pkg/logger"
)

// Response 响应体；Code 为 0 表示成功，否则等于 HTTP 状态码
type Response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func BadRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

func NotFound(c *gin.Context, msg string) {
	fail(c, http.StatusNotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	fail(c, http.StatusConflict, msg)
}

func TooManyRequests(c *gin.Context) {
	fail(c, http.StatusTooManyRequests, "too many requests")
}

func BadGateway(c *gin.Context, msg string) {
	fail(c, http.StatusBadGateway, msg)
}

// InternalError 不把内部错误细节返回给调用方
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	capture(c, err)
	fail(c, http.StatusInternalServerError, "internal server error")
}

// Error 按错误分类选择状态码：NotFound 404、Validation 400、Conflict 409、
// Upstream 502（下游超时 504），其余 500；非下游的超时按 500 处理。
func Error(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: ve.Error(), Errors: ve.Errors})
	case errors.Is(err, apperr.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, apperr.ErrUpstreamUnavailable) && errors.Is(err, context.DeadlineExceeded):
		logger.Warn("upstream timeout", zap.String("path", c.Request.URL.Path), zap.Error(err))
		fail(c, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		logger.Warn("upstream unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		capture(c, err)
		BadGateway(c, err.Error())
	default:
		InternalError(c, err)
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Message: msg})
}

// capture 上报 sentry；未初始化 sentry 时 hub 为空，直接忽略
func capture(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	if sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(err)
	}
}
