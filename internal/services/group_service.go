package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

const maxGroupNameLen = 50

// GroupService 群组服务
type GroupService struct {
	tx      *repositories.Transactor
	users   *repositories.UserRepository
	groups  *repositories.GroupRepository
	lunches *repositories.LunchRepository
	log     *logger.Logger
}

func NewGroupService(
	tx *repositories.Transactor,
	users *repositories.UserRepository,
	groups *repositories.GroupRepository,
	lunches *repositories.LunchRepository,
	log *logger.Logger,
) *GroupService {
	return &GroupService{tx: tx, users: users, groups: groups, lunches: lunches, log: log}
}

// CreateGroupRequest 创建群组请求
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// GroupDetail 群组详情
type GroupDetail struct {
	*models.Group
	Members   []models.GroupMember   `json:"members"`
	Locations []models.GroupLocation `json:"locations"`
}

// CreateGroup 创建群组，创建者成为第一个管理员
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uint, name string) (*models.Group, error) {
	name, err := checkName(name, maxGroupNameLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	group := &models.Group{Name: name}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		if err := groups.Create(ctx, group); err != nil {
			return err
		}
		return groups.AddMember(ctx, &models.GroupMember{
			GroupID:  group.ID,
			UserID:   ownerID,
			Role:     models.MemberRoleAdmin,
			JoinedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

// GetGroup 获取群组详情，成员和站点管理员可见
func (s *GroupService) GetGroup(ctx context.Context, groupID, requestedByID uint) (*GroupDetail, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err, ErrGroupNotFound, "get group")
	}

	isMember, err := s.groups.IsMember(ctx, groupID, requestedByID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		user, err := s.users.GetByID(ctx, requestedByID)
		if err != nil {
			return nil, notFound(err, ErrUserNotFound, "get user")
		}
		if !user.IsAdmin() {
			return nil, ErrNotGroupMember
		}
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	locations, err := s.lunches.ListGroupLocations(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return &GroupDetail{Group: group, Members: members, Locations: locations}, nil
}

// ListUserGroups 用户所在的群组
func (s *GroupService) ListUserGroups(ctx context.Context, userID uint) ([]models.Group, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup 删除群组及其成员、邀请、地点、午餐、评分和评分请求
func (s *GroupService) DeleteGroup(ctx context.Context, groupID uint) error {
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return notFound(err, ErrGroupNotFound, "delete group")
	}
	s.log.InfoContext(ctx, "group deleted", zap.Uint("group_id", groupID))
	return nil
}
