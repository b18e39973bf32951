package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/Fredagslunchen/internal/middlewares"
	"github.com/Gopher0727/Fredagslunchen/internal/services"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

type UserHandler struct {
	users *services.UserService
	log   *logger.Logger
}

func NewUserHandler(users *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

// Login 登录
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Refresh 用即将过期（或刚过期）的 token 换发新 token
func (h *UserHandler) Refresh(c *gin.Context) {
	token := middlewares.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing bearer token"})
		return
	}

	resp, err := h.users.RefreshToken(c.Request.Context(), token)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// GetProfile 当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, user)
}

// UpdateProfile 修改昵称与头像
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, user)
}
