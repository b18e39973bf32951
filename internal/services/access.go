package services

import (
	"context"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
)

// requireMember 要求 userID 是群组成员
func requireMember(ctx context.Context, groups *repositories.GroupRepository, groupID, userID uint) (*models.GroupMember, error) {
	member, err := groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, notFound(err, ErrNotGroupMember, "get membership")
	}
	return member, nil
}

// requireAdmin 要求 userID 是群组管理员
func requireAdmin(ctx context.Context, groups *repositories.GroupRepository, groupID, userID uint) (*models.GroupMember, error) {
	member, err := groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, notFound(err, ErrNotGroupAdmin, "get membership")
	}
	if member.Role != models.MemberRoleAdmin {
		return nil, ErrNotGroupAdmin
	}
	return member, nil
}
