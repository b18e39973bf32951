package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/Fredagslunchen/internal/middlewares"
	"github.com/Gopher0727/Fredagslunchen/internal/services"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

var errBadID = errors.New("invalid id")

// statusOf 将业务错误分类映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func ok(c *gin.Context, status int, data any) {
	if data == nil {
		c.JSON(status, gin.H{"ok": true})
		return
	}
	c.JSON(status, gin.H{"ok": true, "data": data})
}

// fail 写出错误响应；未分类的错误只记录日志，对客户端返回通用信息
func fail(c *gin.Context, log *logger.Logger, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middlewares.ContextUserID)
}

// idParam 解析路径中的正整数 ID，失败时已写出 400
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, errBadID)
		return 0, false
	}
	return uint(id), true
}
