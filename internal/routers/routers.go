package routers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/Fredagslunchen/internal/handlers"
	"github.com/Gopher0727/Fredagslunchen/internal/middlewares"
	"github.com/Gopher0727/Fredagslunchen/middleware/jwt"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
	"github.com/Gopher0727/Fredagslunchen/utils/ratelimit"
)

// Deps 路由依赖，Limiter 为 nil 时不限流
// TrustedProxies 为空时 c.ClientIP() 忽略 X-Forwarded-For，限流按连接地址计数
type Deps struct {
	Logger         *logger.Logger
	TrustedProxies []string
	Tokens   *jwt.TokenManager
	Limiter  ratelimit.Limiter
	AuthRule ratelimit.Rule

	Users  *handlers.UserHandler
	Groups *handlers.GroupHandler
	Lunch  *handlers.LunchHandler
	Admin  *handlers.AdminHandler
}

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, d Deps) error {
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", logger.RequestIDHeader}
	r.Use(cors.New(corsCfg))
	r.Use(logger.GinMiddleware(d.Logger))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api/v1")
	auth := middlewares.AuthMiddleware(d.Tokens)

	RegisterUserRoutes(api, d, auth)
	RegisterGroupRoutes(api, d.Groups, d.Lunch, auth)
	RegisterLunchRoutes(api, d.Lunch, auth)
	RegisterAdminRoutes(api, d.Admin, auth)
	return nil
}

func RegisterUserRoutes(api *gin.RouterGroup, d Deps, auth gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.POST("/register", middlewares.RateLimit(d.Limiter, "register", d.AuthRule), d.Users.Register)
		users.POST("/login", middlewares.RateLimit(d.Limiter, "login", d.AuthRule), d.Users.Login)
		users.POST("/refresh", middlewares.RateLimit(d.Limiter, "refresh", d.AuthRule), d.Users.Refresh)
	}
	me := users.Group("/me", auth)
	{
		me.GET("", d.Users.GetProfile)
		me.PUT("", d.Users.UpdateProfile)
	}
}

func RegisterGroupRoutes(api *gin.RouterGroup, h *handlers.GroupHandler, lunch *handlers.LunchHandler, auth gin.HandlerFunc) {
	groups := api.Group("/groups", auth)
	{
		groups.POST("", h.CreateGroup)
		groups.GET("", h.ListGroups)
		groups.GET("/:group_id", h.GetGroup)

		// 成员
		groups.GET("/:group_id/members", h.ListMembers)
		groups.POST("/:group_id/members", h.AddMember)
		groups.DELETE("/:group_id/members/:user_id", h.RemoveMember)
		groups.POST("/:group_id/anonymous-users", h.CreateAnonymousUser)

		// 邀请
		groups.POST("/:group_id/invites/:user_id", h.CreateInvite)
		groups.DELETE("/:group_id/invites/:user_id", h.DeleteInvite)

		// 地点
		groups.POST("/:group_id/locations", lunch.AddLocation)
	}

	invites := api.Group("/invites", auth)
	{
		invites.GET("", h.ListInvites)
		invites.POST("/:token/accept", h.AcceptInvite)
	}
}

func RegisterLunchRoutes(api *gin.RouterGroup, h *handlers.LunchHandler, auth gin.HandlerFunc) {
	lunches := api.Group("/lunches", auth)
	{
		lunches.POST("", h.CreateLunch)
		lunches.GET("/:lunch_id", h.GetLunch)
		lunches.POST("/:lunch_id/scores", h.CreateScore)
		lunches.POST("/:lunch_id/score-requests", h.CreateScoreRequest)
	}

	api.DELETE("/scores/:score_id", auth, h.DeleteScore)

	requests := api.Group("/score-requests", auth)
	{
		requests.GET("", h.ListScoreRequests)
		requests.DELETE("/:request_id", h.DeleteScoreRequest)
	}
}

func RegisterAdminRoutes(api *gin.RouterGroup, h *handlers.AdminHandler, auth gin.HandlerFunc) {
	admin := api.Group("/admin", auth, middlewares.AdminOnly())
	{
		admin.GET("/stats", h.Stats)
		admin.DELETE("/groups/:group_id", h.DeleteGroup)
	}
}
