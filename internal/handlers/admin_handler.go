package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/Fredagslunchen/internal/services"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

// AdminHandler 站点管理，路由需挂在 AdminOnly 之后
type AdminHandler struct {
	admin  *services.AdminService
	groups *services.GroupService
	log    *logger.Logger
}

func NewAdminHandler(admin *services.AdminService, groups *services.GroupService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, groups: groups, log: log}
}

// Stats 实体数量统计
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// DeleteGroup 删除群组及其全部数据
func (h *AdminHandler) DeleteGroup(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}

	if err := h.groups.DeleteGroup(c.Request.Context(), groupID); err != nil {
		fail(c, h.log, err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "admin deleted group",
		zap.Uint("group_id", groupID), zap.Uint("admin_id", currentUserID(c)))
	ok(c, http.StatusOK, nil)
}
