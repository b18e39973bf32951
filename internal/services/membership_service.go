package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

const maxUserNameLen = 50

// MembershipService 群组成员管理
type MembershipService struct {
	tx      *repositories.Transactor
	users   *repositories.UserRepository
	groups  *repositories.GroupRepository
	lunches *repositories.LunchRepository
	log     *logger.Logger
}

func NewMembershipService(
	tx *repositories.Transactor,
	users *repositories.UserRepository,
	groups *repositories.GroupRepository,
	lunches *repositories.LunchRepository,
	log *logger.Logger,
) *MembershipService {
	return &MembershipService{tx: tx, users: users, groups: groups, lunches: lunches, log: log}
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// CreateAnonymousUserRequest 创建匿名成员请求
type CreateAnonymousUserRequest struct {
	Name string `json:"name" binding:"required"`
}

// RemoveMemberResult 移除成员的结果
// 被移除的是唯一管理员时，PromotedUserID 为被提升为管理员的成员
type RemoveMemberResult struct {
	ScoresDeleted  int64 `json:"scores_deleted"`
	PromotedUserID *uint `json:"promoted_user_id,omitempty"`
}

// AddMember 管理员将用户加入群组，role 为空时默认为 MEMBER
func (s *MembershipService) AddMember(ctx context.Context, groupID, userID uint, role string, requestedByID uint) (*models.GroupMember, error) {
	if role == "" {
		role = models.MemberRoleMember
	}
	if !models.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}
	if _, err := requireAdmin(ctx, s.groups, groupID, requestedByID); err != nil {
		s.log.DebugContext(ctx, "add member denied", zap.Uint("group_id", groupID), zap.Uint("requested_by", requestedByID))
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		exists, err := groups.IsMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyMember
		}
		if err := groups.AddMember(ctx, member); err != nil {
			return err
		}
		// 已经是成员，邀请不再有意义
		_, err = groups.DeleteInvite(ctx, groupID, userID)
		return err
	})
	switch {
	case err == nil:
		return member, nil
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrAlreadyMember
	default:
		return nil, fmt.Errorf("add member: %w", err)
	}
}

// RemoveMember 移除成员
// 只有本人或群组管理员可以操作；deleteScores 为 true 时同时删除该用户在本群组午餐上的评分
// 被移除的是唯一管理员时，最早加入的其余成员被提升为管理员；唯一成员不能被移除
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, userID, requestedByID uint, deleteScores bool) (*RemoveMemberResult, error) {
	result := &RemoveMemberResult{}
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		lunches := s.lunches.WithTx(tx)

		// 先锁群组再读成员与计数，并发移除不会同时通过最后成员/最后管理员检查
		if err := groups.LockGroup(ctx, groupID); err != nil {
			return notFound(err, ErrGroupNotFound, "lock group")
		}
		if requestedByID != userID {
			if _, err := requireAdmin(ctx, groups, groupID, requestedByID); err != nil {
				s.log.DebugContext(ctx, "remove member denied", zap.Uint("group_id", groupID), zap.Uint("requested_by", requestedByID))
				return err
			}
		}

		target, err := groups.GetMember(ctx, groupID, userID)
		if err != nil {
			return notFound(err, ErrMemberNotFound, "get membership")
		}

		total, err := groups.CountMembers(ctx, groupID, "")
		if err != nil {
			return err
		}
		if total <= 1 {
			return ErrLastMember
		}

		if target.Role == models.MemberRoleAdmin {
			admins, err := groups.CountMembers(ctx, groupID, models.MemberRoleAdmin)
			if err != nil {
				return err
			}
			if admins == 1 {
				next, err := groups.OldestMemberExcept(ctx, groupID, userID)
				if err != nil {
					return err
				}
				if err := groups.UpdateMemberRole(ctx, next.ID, models.MemberRoleAdmin); err != nil {
					return err
				}
				result.PromotedUserID = &next.UserID
			}
		}

		if deleteScores {
			n, err := lunches.DeleteUserScoresInGroup(ctx, groupID, userID)
			if err != nil {
				return err
			}
			result.ScoresDeleted = n
		}
		if _, err := lunches.DeleteUserScoreRequestsInGroup(ctx, groupID, userID); err != nil {
			return err
		}
		_, err = groups.DeleteMember(ctx, groupID, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("remove member: %w", err)
	}

	if result.PromotedUserID != nil {
		s.log.InfoContext(ctx, "last admin left, promoted member",
			zap.Uint("group_id", groupID), zap.Uint("user_id", *result.PromotedUserID))
	}
	return result, nil
}

// CreateAnonymousUser 为未注册的午餐参与者创建占位用户并加入群组
// 用户与成员关系在同一事务中写入，失败时不留下任何记录
func (s *MembershipService) CreateAnonymousUser(ctx context.Context, name string, groupID, createdByID uint) (*models.User, error) {
	name, err := checkName(name, maxUserNameLen)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.groups, groupID, createdByID); err != nil {
		return nil, err
	}

	creator := createdByID
	user := &models.User{
		Name:        name,
		Role:        models.UserRoleUser,
		Anonymous:   true,
		CreatedByID: &creator,
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.groups.WithTx(tx).AddMember(ctx, &models.GroupMember{
			GroupID:  groupID,
			UserID:   user.ID,
			Role:     models.MemberRoleMember,
			JoinedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}
	return user, nil
}

// AcceptInvite 接受邀请：加入群组并删除邀请
func (s *MembershipService) AcceptInvite(ctx context.Context, token string, userID uint) (*models.GroupMember, error) {
	invite, err := s.groups.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, notFound(err, ErrInviteNotFound, "get invite")
	}
	if invite.UserID != userID {
		return nil, ErrInviteNotYours
	}

	member := &models.GroupMember{
		GroupID:  invite.GroupID,
		UserID:   userID,
		Role:     models.MemberRoleMember,
		JoinedAt: time.Now(),
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		if err := groups.EnsureMember(ctx, member); err != nil {
			return err
		}
		stored, err := groups.GetMember(ctx, invite.GroupID, userID)
		if err != nil {
			return err
		}
		*member = *stored
		_, err = groups.DeleteInvite(ctx, invite.GroupID, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	return member, nil
}

// ListMembers 列出群组成员，仅成员可见
func (s *MembershipService) ListMembers(ctx context.Context, groupID, requestedByID uint) ([]models.GroupMember, error) {
	if _, err := requireMember(ctx, s.groups, groupID, requestedByID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
