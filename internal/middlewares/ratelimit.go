package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/Fredagslunchen/utils/ratelimit"
)

// RateLimit 按客户端 IP 限流，scope 区分不同接口的计数
// 响应头 X-RateLimit-Remaining 为当前窗口剩余次数
// limiter 为 nil 时不限流
func RateLimit(limiter ratelimit.Limiter, scope string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := scope + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key, rule)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "rate limiter unavailable"})
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		if remaining, err := limiter.Remaining(c.Request.Context(), key, rule); err == nil {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
