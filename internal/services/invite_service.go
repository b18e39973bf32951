package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/notify"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

// InviteService 入群邀请管理
type InviteService struct {
	users    *repositories.UserRepository
	groups   *repositories.GroupRepository
	notifier notify.Notifier
	log      *logger.Logger
}

func NewInviteService(users *repositories.UserRepository, groups *repositories.GroupRepository, notifier notify.Notifier, log *logger.Logger) *InviteService {
	return &InviteService{users: users, groups: groups, notifier: notifier, log: log}
}

// CreateInviteToken 管理员邀请用户加入群组
// 同一 (group, user) 重复邀请返回已有的邀请，只在首次创建时发送通知
func (s *InviteService) CreateInviteToken(ctx context.Context, groupID, userID, requestedByID uint) (*models.InviteToken, error) {
	if _, err := requireAdmin(ctx, s.groups, groupID, requestedByID); err != nil {
		s.log.DebugContext(ctx, "create invite denied", zap.Uint("group_id", groupID), zap.Uint("requested_by", requestedByID))
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}
	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if member {
		return nil, ErrAlreadyMember
	}

	invite := &models.InviteToken{
		Token:       uuid.NewString(),
		GroupID:     groupID,
		UserID:      userID,
		CreatedByID: requestedByID,
	}
	created, err := s.groups.UpsertInvite(ctx, invite)
	if err != nil {
		return nil, fmt.Errorf("upsert invite: %w", err)
	}

	if created {
		ev := notify.Event{
			Type:    notify.EventInviteCreated,
			GroupID: groupID,
			UserID:  userID,
			ActorID: requestedByID,
			Token:   invite.Token,
		}
		if user.Email != nil {
			ev.Email = *user.Email
		}
		s.notifier.Notify(ctx, ev)
	}
	return invite, nil
}

// DeleteInviteToken 撤销邀请，邀请不存在时同样视为成功
func (s *InviteService) DeleteInviteToken(ctx context.Context, groupID, userID, requestedByID uint) error {
	if _, err := requireAdmin(ctx, s.groups, groupID, requestedByID); err != nil {
		s.log.DebugContext(ctx, "delete invite denied", zap.Uint("group_id", groupID), zap.Uint("requested_by", requestedByID))
		return err
	}
	if _, err := s.groups.DeleteInvite(ctx, groupID, userID); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

// ListInvites 用户收到的待处理邀请
func (s *InviteService) ListInvites(ctx context.Context, userID uint) ([]models.InviteToken, error) {
	invites, err := s.groups.ListInvitesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}
