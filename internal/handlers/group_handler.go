package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/Fredagslunchen/internal/services"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

// GroupHandler 群组、成员与邀请
type GroupHandler struct {
	groups     *services.GroupService
	membership *services.MembershipService
	invites    *services.InviteService
	log        *logger.Logger
}

func NewGroupHandler(groups *services.GroupService, membership *services.MembershipService, invites *services.InviteService, log *logger.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, membership: membership, invites: invites, log: log}
}

// CreateGroup 创建群组
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req services.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, group)
}

// ListGroups 当前用户所在的群组
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListUserGroups(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, groups)
}

// GetGroup 群组详情
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, group)
}

// ListMembers 群组成员
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}

	members, err := h.membership.ListMembers(c.Request.Context(), groupID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, members)
}

// AddMember 添加成员
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.membership.AddMember(c.Request.Context(), groupID, req.UserID, req.Role, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, member)
}

// RemoveMember 移除成员或退出群组，?delete_scores=true 同时删除评分
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	userID, valid := idParam(c, "user_id")
	if !valid {
		return
	}
	deleteScores, err := strconv.ParseBool(c.DefaultQuery("delete_scores", "false"))
	if err != nil {
		badRequest(c, errors.New("delete_scores must be a boolean"))
		return
	}

	result, err := h.membership.RemoveMember(c.Request.Context(), groupID, userID, currentUserID(c), deleteScores)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// CreateAnonymousUser 创建匿名成员
func (h *GroupHandler) CreateAnonymousUser(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	var req services.CreateAnonymousUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.membership.CreateAnonymousUser(c.Request.Context(), req.Name, groupID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

// CreateInvite 邀请用户
func (h *GroupHandler) CreateInvite(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	userID, valid := idParam(c, "user_id")
	if !valid {
		return
	}

	invite, err := h.invites.CreateInviteToken(c.Request.Context(), groupID, userID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, invite)
}

// DeleteInvite 撤销邀请
func (h *GroupHandler) DeleteInvite(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	userID, valid := idParam(c, "user_id")
	if !valid {
		return
	}

	if err := h.invites.DeleteInviteToken(c.Request.Context(), groupID, userID, currentUserID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// ListInvites 当前用户收到的邀请
func (h *GroupHandler) ListInvites(c *gin.Context) {
	invites, err := h.invites.ListInvites(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, invites)
}

// AcceptInvite 接受邀请
func (h *GroupHandler) AcceptInvite(c *gin.Context) {
	member, err := h.membership.AcceptInvite(c.Request.Context(), c.Param("token"), currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, member)
}
